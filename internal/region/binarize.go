package region

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Binarize converts an 8-bit image to a 0/255 binary image with Otsu's
// threshold: pixels strictly above the threshold become foreground. Three and
// four channel input is converted to grayscale (BGR luminance) first. The
// chosen threshold is returned alongside the new Mat.
func Binarize(src gocv.Mat) (gocv.Mat, float64, error) {
	if src.Empty() || src.Rows() <= 0 || src.Cols() <= 0 {
		return gocv.NewMat(), 0, fmt.Errorf("%w: empty image", ErrInputShape)
	}

	gray := gocv.NewMat()
	defer gray.Close()

	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		src.CopyTo(&gray)
	case gocv.MatTypeCV8UC3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case gocv.MatTypeCV8UC4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		return gocv.NewMat(), 0, fmt.Errorf("%w: unsupported image type %d (need 8-bit, 1/3/4 channels)",
			ErrInputShape, int(src.Type()))
	}

	binary := gocv.NewMat()
	thresh := gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	return binary, float64(thresh), nil
}
