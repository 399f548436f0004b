package region

import (
	"image"

	"gocv.io/x/gocv"
)

// squareKernel is the 3x3 all-ones structuring element.
func squareKernel() gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
}

// Open removes speckle noise: iterations erosions followed by the same number
// of dilations with a 3x3 square. The input is left untouched.
func Open(bin gocv.Mat, iterations int) gocv.Mat {
	kernel := squareKernel()
	defer kernel.Close()

	opened := bin.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Erode(opened, &opened, kernel)
	}
	for i := 0; i < iterations; i++ {
		gocv.Dilate(opened, &opened, kernel)
	}
	return opened
}

// dilateOnce returns bin dilated by a single 3x3 pass.
func dilateOnce(bin gocv.Mat) gocv.Mat {
	kernel := squareKernel()
	defer kernel.Close()

	dilated := gocv.NewMat()
	gocv.Dilate(bin, &dilated, kernel)
	return dilated
}
