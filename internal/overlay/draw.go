package overlay

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"tma-mapper/internal/grid"
	"tma-mapper/internal/region"
	"tma-mapper/pkg/colorutil"
)

// DrawRegions outlines detected regions on a BGR copy of base.
func DrawRegions(base gocv.Mat, regions []region.Region) (gocv.Mat, error) {
	cores := make([]grid.AssignedCore, len(regions))
	for i, r := range regions {
		cores[i] = grid.AssignedCore{Region: r, Row: -1, Col: -1}
	}
	return DrawAssignment(base, cores)
}

// DrawAssignment outlines every core on a BGR copy of base, green for
// detected and red for imaginary cores, and labels assigned cores with their
// row and column.
func DrawAssignment(base gocv.Mat, cores []grid.AssignedCore) (gocv.Mat, error) {
	canvas, err := toBGR(base)
	if err != nil {
		return gocv.NewMat(), err
	}

	for _, c := range cores {
		center := image.Pt(int(math.Round(c.Region.X)), int(math.Round(c.Region.Y)))
		radius := int(math.Round(c.Region.Radius))
		if radius < 1 {
			radius = 1
		}
		col := colorutil.Core(c.Imaginary)
		gocv.Circle(&canvas, center, radius, col, 2)

		if c.Row >= 0 && c.Col >= 0 {
			gocv.PutText(&canvas, fmt.Sprintf("%d,%d", c.Row, c.Col),
				image.Pt(center.X-radius, center.Y-radius-3),
				gocv.FontHersheyPlain, 0.8, colorutil.Yellow, 1)
		}
	}
	return canvas, nil
}

func toBGR(base gocv.Mat) (gocv.Mat, error) {
	if base.Empty() {
		return gocv.NewMat(), fmt.Errorf("overlay: empty base image")
	}

	out := gocv.NewMat()
	switch base.Type() {
	case gocv.MatTypeCV8UC1:
		gocv.CvtColor(base, &out, gocv.ColorGrayToBGR)
	case gocv.MatTypeCV8UC3:
		base.CopyTo(&out)
	case gocv.MatTypeCV8UC4:
		gocv.CvtColor(base, &out, gocv.ColorBGRAToBGR)
	default:
		gray := ToDisplay(base)
		defer gray.Close()
		gocv.CvtColor(gray, &out, gocv.ColorGrayToBGR)
	}
	return out, nil
}
