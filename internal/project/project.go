// Package project provides result file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tma-mapper/internal/grid"
	"tma-mapper/internal/region"
	"tma-mapper/internal/version"
)

// FormatVersion is the current result file layout.
const FormatVersion = 1

// Result is the detection output for one mask (.cores.json).
type Result struct {
	Version     int       `json:"version"`
	Tool        string    `json:"tool"`
	Created     time.Time `json:"created"`
	Description string    `json:"description,omitempty"`

	// Mask path (relative to the result file when possible)
	MaskPath string `json:"mask"`

	Detection *region.DetectionResult `json:"detection"`

	// Grid search, present only when the angle search ran
	Angle      *float64            `json:"angle,omitempty"`
	Search     *grid.SearchState   `json:"search,omitempty"`
	Assignment []grid.AssignedCore `json:"assignment,omitempty"`

	// Debug images written alongside (relative paths)
	StageImages []string `json:"stage_images,omitempty"`
	OverlayPath string   `json:"overlay,omitempty"`
}

// New creates a result for a detection run.
func New(det *region.DetectionResult) *Result {
	return &Result{
		Version:   FormatVersion,
		Tool:      "coredetect " + version.Version,
		Created:   time.Now(),
		Detection: det,
	}
}

// SetAngle records the outcome of the grid search.
func (r *Result) SetAngle(angle float64, state *grid.SearchState, assignment []grid.AssignedCore) {
	r.Angle = &angle
	r.Search = state
	r.Assignment = assignment
}

// SetMask sets the mask path (relative to the result file).
func (r *Result) SetMask(resultPath, maskPath string) {
	r.MaskPath = relativeTo(resultPath, maskPath)
}

// AddStageImage records a stage dump (relative to the result file).
func (r *Result) AddStageImage(resultPath, imagePath string) {
	r.StageImages = append(r.StageImages, relativeTo(resultPath, imagePath))
}

// SetOverlay sets the overlay image path (relative to the result file).
func (r *Result) SetOverlay(resultPath, imagePath string) {
	r.OverlayPath = relativeTo(resultPath, imagePath)
}

// GetMaskPath returns the absolute path to the mask.
func (r *Result) GetMaskPath(resultPath string) string {
	if r.MaskPath == "" {
		return ""
	}
	if filepath.IsAbs(r.MaskPath) {
		return r.MaskPath
	}
	return filepath.Join(filepath.Dir(resultPath), r.MaskPath)
}

// Load loads a result from a JSON file.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if res.Version > FormatVersion {
		return nil, fmt.Errorf("%s: unsupported result version %d", path, res.Version)
	}

	return &res, nil
}

// Save saves the result to a file.
func (r *Result) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the result path for a mask: mask_name.cores.json in
// outDir, or next to the mask when outDir is empty.
func DefaultPath(maskPath, outDir string) string {
	base := filepath.Base(maskPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".cores.json"
	if outDir == "" {
		return filepath.Join(filepath.Dir(maskPath), base)
	}
	return filepath.Join(outDir, base)
}

func relativeTo(resultPath, p string) string {
	rel, err := filepath.Rel(filepath.Dir(resultPath), p)
	if err != nil {
		return p
	}
	return rel
}
