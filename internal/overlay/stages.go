// Package overlay writes the debug images of the detection pipeline: the
// intermediate stage images and a rendering of the cores over the mask.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"tma-mapper/internal/region"
)

// StageWriter saves each pipeline stage as a numbered PNG in a directory.
// Float images such as the distance map are stretched to 0-255 first.
type StageWriter struct {
	dir    string
	prefix string
	log    zerolog.Logger

	mu    sync.Mutex
	seq   int
	files []string
	err   error
}

// NewStageWriter creates dir if needed. Files are named
// <prefix>_<nn>_<stage>.png.
func NewStageWriter(dir, prefix string, log zerolog.Logger) (*StageWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create stage dir: %w", err)
	}
	return &StageWriter{dir: dir, prefix: prefix, log: log}, nil
}

// Hook returns a region.StageFunc that writes every stage it sees.
func (w *StageWriter) Hook() region.StageFunc {
	return func(stage region.Stage, m gocv.Mat) {
		w.mu.Lock()
		defer w.mu.Unlock()

		if w.err != nil {
			return
		}
		w.seq++
		path := filepath.Join(w.dir, fmt.Sprintf("%s_%02d_%s.png", w.prefix, w.seq, stage))
		if err := Save(path, m); err != nil {
			w.err = err
			w.log.Warn().Err(err).Str("stage", string(stage)).Msg("stage not saved")
			return
		}
		w.files = append(w.files, path)
		w.log.Debug().Str("stage", string(stage)).Str("path", path).Msg("saved stage")
	}
}

// Files lists the images written so far.
func (w *StageWriter) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

// Err returns the first write failure, after which the writer stops.
func (w *StageWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Save writes m to path, converting non-8-bit images with a min-max stretch.
func Save(path string, m gocv.Mat) error {
	if m.Empty() {
		return fmt.Errorf("save %s: empty image", path)
	}

	out := m
	if m.Type() != gocv.MatTypeCV8UC1 && m.Type() != gocv.MatTypeCV8UC3 && m.Type() != gocv.MatTypeCV8UC4 {
		out = ToDisplay(m)
		defer out.Close()
	}

	if !gocv.IMWrite(path, out) {
		return fmt.Errorf("save %s: write failed", path)
	}
	return nil
}

// ToDisplay stretches a single-channel image of any depth to 8-bit 0-255.
// A constant image maps to all zeros.
func ToDisplay(m gocv.Mat) gocv.Mat {
	stretched := gocv.NewMat()
	defer stretched.Close()
	gocv.Normalize(m, &stretched, 0, 255, gocv.NormMinMax)

	out := gocv.NewMat()
	stretched.ConvertTo(&out, gocv.MatTypeCV8U)
	return out
}
