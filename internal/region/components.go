package region

import (
	"fmt"

	"gocv.io/x/gocv"
)

// componentStats accumulates per-label area and coordinate sums.
type componentStats struct {
	area       int
	sumX, sumY float64
}

func (c componentStats) centroid() (x, y float64) {
	n := float64(c.area)
	return c.sumX / n, c.sumY / n
}

// labelComponents labels the non-zero pixels of an 8-bit binary Mat and
// accumulates area and coordinate sums for every label in a single pass over
// the pixels. comps is indexed by label; comps[0] is the background and is
// left empty. labels is a row-major copy of the label map.
func labelComponents(bin gocv.Mat, connectivity int) (labels []int32, comps []componentStats, err error) {
	if err := checkBinary(bin); err != nil {
		return nil, nil, err
	}

	labelMat := gocv.NewMat()
	defer labelMat.Close()
	n := gocv.ConnectedComponentsWithParams(bin, &labelMat, connectivity, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	raw, err := labelMat.DataPtrInt32()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels = make([]int32, len(raw))
	copy(labels, raw)

	cols := bin.Cols()
	comps = make([]componentStats, n)
	for i, l := range labels {
		if l == 0 {
			continue
		}
		c := &comps[l]
		c.area++
		c.sumX += float64(i % cols)
		c.sumY += float64(i / cols)
	}

	return labels, comps, nil
}

// checkBinary verifies a Mat is a non-empty single-channel 8-bit image.
func checkBinary(m gocv.Mat) error {
	if m.Empty() || m.Rows() <= 0 || m.Cols() <= 0 {
		return fmt.Errorf("%w: empty image", ErrInputShape)
	}
	if m.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("%w: expected 8-bit single channel image, got type %d", ErrInputShape, int(m.Type()))
	}
	return nil
}

// newBinaryMat copies buf into a new 8-bit single channel Mat.
func newBinaryMat(rows, cols int, buf []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat: %w", err)
	}
	defer view.Close()
	return view.Clone(), nil
}
