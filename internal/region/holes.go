package region

import (
	"image/color"

	"gocv.io/x/gocv"

	"tma-mapper/pkg/stats"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// FillSmallHoles repairs gaps the opening left behind. Candidate holes are the
// components of (dilate(opened) - opened); those whose area is strictly below
// ratio × the median candidate area are filled back onto a copy of opened by
// drawing their external contours filled. Larger candidates are boundary
// features and are left alone.
//
// With no candidates the median is undefined; the copy is returned unchanged.
func FillSmallHoles(opened gocv.Mat, ratio float64, connectivity int) (gocv.Mat, HoleReport, error) {
	var report HoleReport
	if err := checkBinary(opened); err != nil {
		return gocv.NewMat(), report, err
	}

	dilated := dilateOnce(opened)
	holes := gocv.NewMat()
	gocv.Subtract(dilated, opened, &holes)
	dilated.Close()

	labels, comps, err := labelComponents(holes, connectivity)
	holes.Close()
	if err != nil {
		return gocv.NewMat(), report, err
	}

	filled := opened.Clone()

	report.Candidates = len(comps) - 1
	if report.Candidates <= 0 {
		report.Candidates = 0
		return filled, report, nil
	}

	areas := make([]int, 0, report.Candidates)
	for l := 1; l < len(comps); l++ {
		areas = append(areas, comps[l].area)
	}
	median, _ := stats.MedianInts(areas)
	report.MedianArea = median
	report.Threshold = median * ratio

	small := make([]bool, len(comps))
	for l := 1; l < len(comps); l++ {
		if float64(comps[l].area) < report.Threshold {
			small[l] = true
			report.Filled++
		}
	}
	if report.Filled == 0 {
		return filled, report, nil
	}

	buf := make([]byte, len(labels))
	for i, l := range labels {
		if small[l] {
			buf[i] = 255
		}
	}
	smallMask, err := newBinaryMat(opened.Rows(), opened.Cols(), buf)
	if err != nil {
		filled.Close()
		return gocv.NewMat(), report, err
	}
	defer smallMask.Close()

	contours := gocv.FindContours(smallMask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	gocv.DrawContours(&filled, contours, -1, white, -1)

	return filled, report, nil
}
