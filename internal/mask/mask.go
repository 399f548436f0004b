// Package mask holds the per-pixel probability mask produced by the
// segmentation model and converts it into the 8-bit Mats the region
// pipeline consumes.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// ErrShape reports a mask whose dimensions or data length are unusable.
var ErrShape = errors.New("invalid mask shape")

// Mask is a row-major grid of probabilities in [0,1]. Stages never modify a
// Mask in place; operations return a new one.
type Mask struct {
	Width  int
	Height int
	Data   []float32 // len = Width*Height, index y*Width+x
}

// New wraps data as a Mask after validating its shape. Values are clamped to
// [0,1]; data is copied.
func New(width, height int, data []float32) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(data), width, height)
	}

	m := &Mask{Width: width, Height: height, Data: make([]float32, len(data))}
	for i, v := range data {
		m.Data[i] = clamp01(v)
	}
	return m, nil
}

// Zeros returns an all-background mask.
func Zeros(width, height int) (*Mask, error) {
	return New(width, height, make([]float32, width*height))
}

// At returns the probability at (x, y).
func (m *Mask) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// Set stores v (clamped) at (x, y).
func (m *Mask) Set(x, y int, v float32) {
	m.Data[y*m.Width+x] = clamp01(v)
}

// Validate checks that the mask is non-empty and its data matches its size.
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrShape)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShape, m.Width, m.Height)
	}
	if len(m.Data) != m.Width*m.Height {
		return fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(m.Data), m.Width, m.Height)
	}
	return nil
}

// Threshold returns a new mask with 1 where the probability is >= t and 0
// elsewhere.
func (m *Mask) Threshold(t float32) *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, Data: make([]float32, len(m.Data))}
	for i, v := range m.Data {
		if v >= t {
			out.Data[i] = 1
		}
	}
	return out
}

// ToMat converts the mask into a single-channel 8-bit Mat (value*255,
// truncated). The caller owns the returned Mat.
func (m *Mask) ToMat() (gocv.Mat, error) {
	if err := m.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	buf := make([]byte, len(m.Data))
	for i, v := range m.Data {
		buf[i] = uint8(float64(v) * 255) // Truncates
	}

	view, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat: %w", err)
	}
	defer view.Close()

	// NewMatFromBytes borrows buf; clone so the Mat owns its pixels
	return view.Clone(), nil
}

// FromImage builds a mask from an image's luminance, scaled to [0,1].
func FromImage(img image.Image) (*Mask, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, w, h)
	}

	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray16)
			data[y*w+x] = float32(g.Y) / 65535
		}
	}

	return &Mask{Width: w, Height: h, Data: data}, nil
}

// Load decodes a PNG, JPEG or TIFF file into a mask.
func Load(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask %s: %w", path, err)
	}

	return FromImage(img)
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
