package region

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// DistanceTransform returns the L2 distance (5x5 mask) of every foreground
// pixel to the nearest background pixel, as a float32 Mat, together with its
// maximum value D_max.
func DistanceTransform(bin gocv.Mat) (gocv.Mat, float64, error) {
	if err := checkBinary(bin); err != nil {
		return gocv.NewMat(), 0, err
	}

	dist := gocv.NewMat()
	labels := gocv.NewMat()
	defer labels.Close()
	gocv.DistanceTransform(bin, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	_, maxVal, _, _ := gocv.MinMaxLoc(dist)
	return dist, float64(maxVal), nil
}

// ThresholdDistance keeps the pixels whose distance is >= delta*maxDist and
// returns them as an 8-bit 0/255 Mat with the threshold used. When maxDist is
// zero there is no structure to separate and the result is all background.
func ThresholdDistance(dist gocv.Mat, maxDist, delta float64) (gocv.Mat, float64, error) {
	if dist.Empty() {
		return gocv.NewMat(), 0, fmt.Errorf("%w: empty distance map", ErrInputShape)
	}
	if maxDist <= 0 {
		return gocv.Zeros(dist.Rows(), dist.Cols(), gocv.MatTypeCV8UC1), 0, nil
	}

	threshold := delta * maxDist
	fg := gocv.NewMat()
	gocv.InRangeWithScalar(dist,
		gocv.NewScalar(threshold, 0, 0, 0),
		gocv.NewScalar(math.MaxFloat32, 0, 0, 0),
		&fg)

	return fg, threshold, nil
}

// SeparateForeground shrinks touching blobs to their interior seeds by
// thresholding the distance transform at delta × D_max.
func SeparateForeground(bin gocv.Mat, delta float64) (gocv.Mat, error) {
	dist, maxDist, err := DistanceTransform(bin)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer dist.Close()

	fg, _, err := ThresholdDistance(dist, maxDist, delta)
	return fg, err
}
