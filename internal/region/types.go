// Package region turns a segmentation mask into circular tissue-core regions:
// Otsu binarization, opening, small-hole repair, distance-transform
// foreground separation and connected-component statistics.
package region

import (
	"math"

	"tma-mapper/pkg/geometry"
	"tma-mapper/pkg/stats"
)

// Region is one detected core. Radius is always derived from Area
// (sqrt(area/π)); it is never measured from the shape.
type Region struct {
	Label  int     `json:"label"`  // Component label, only meaningful within one run
	X      float64 `json:"x"`      // Centroid column
	Y      float64 `json:"y"`      // Centroid row
	Radius float64 `json:"radius"` // Equivalent-circle radius in pixels
	Area   int     `json:"area"`   // Pixel count
}

// NewRegion creates a Region, deriving the radius from the area.
func NewRegion(label int, x, y float64, area int) Region {
	return Region{
		Label:  label,
		X:      x,
		Y:      y,
		Radius: RadiusFromArea(area),
		Area:   area,
	}
}

// RadiusFromArea returns the radius of a circle with the given area.
func RadiusFromArea(area int) float64 {
	return math.Sqrt(float64(area) / math.Pi)
}

// Center returns the region centroid as a point.
func (r Region) Center() geometry.Point2D {
	return geometry.Point2D{X: r.X, Y: r.Y}
}

// HoleReport describes what the hole repair stage found.
type HoleReport struct {
	Candidates int     `json:"candidates"`  // Components in (dilated - opened)
	MedianArea float64 `json:"median_area"` // 0 when there were no candidates
	Threshold  float64 `json:"threshold"`   // Areas strictly below this were filled
	Filled     int     `json:"filled"`
}

// DetectionResult holds the regions found in one mask plus the
// data-dependent values the pipeline derived along the way.
type DetectionResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Regions []Region `json:"regions"`

	OtsuThreshold     float64       `json:"otsu_threshold"`
	Holes             HoleReport    `json:"holes"`
	MaxDistance       float64       `json:"max_distance"`       // D_max of the distance transform
	DistanceThreshold float64       `json:"distance_threshold"` // δ·D_max
	Components        int           `json:"components"`         // Foreground components before area filtering
	Areas             stats.Summary `json:"areas"`              // Areas of the kept regions

	Params Params `json:"params"`
}
