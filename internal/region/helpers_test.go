package region

import (
	"testing"

	"gocv.io/x/gocv"

	"tma-mapper/internal/mask"
)

// newBlank returns an all-zero 8-bit single channel Mat.
func newBlank(rows, cols int) gocv.Mat {
	return gocv.Zeros(rows, cols, gocv.MatTypeCV8UC1)
}

// fillDisc sets every pixel within r of (cx, cy) to 255 and returns how many
// pixels it covered.
func fillDisc(m *gocv.Mat, cx, cy int, r float64) int {
	n := 0
	ri := int(r) + 1
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) > r*r {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= m.Cols() || y >= m.Rows() {
				continue
			}
			m.SetUCharAt(y, x, 255)
			n++
		}
	}
	return n
}

// fillRect sets a w x h block with top-left (x, y) to 255.
func fillRect(m *gocv.Mat, x, y, w, h int) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			m.SetUCharAt(yy, xx, 255)
		}
	}
}

// discMask builds a probability mask with value 1 inside each disc.
func discMask(t *testing.T, width, height int, discs ...[3]float64) *mask.Mask {
	t.Helper()
	m, err := mask.Zeros(width, height)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	for _, d := range discs {
		cx, cy, r := d[0], d[1], d[2]
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx, dy := float64(x)-cx, float64(y)-cy
				if dx*dx+dy*dy <= r*r {
					m.Set(x, y, 1)
				}
			}
		}
	}
	return m
}

// sameMat reports whether two 8-bit single channel Mats hold identical pixels.
func sameMat(a, b gocv.Mat) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for y := 0; y < a.Rows(); y++ {
		for x := 0; x < a.Cols(); x++ {
			if a.GetUCharAt(y, x) != b.GetUCharAt(y, x) {
				return false
			}
		}
	}
	return true
}
