package region

import (
	"gocv.io/x/gocv"
)

// ExtractRegions labels the foreground components of bin and returns a Region
// for each component whose area lies in [minArea, maxArea]. Regions follow
// label order. The second return value is the number of components found
// before area filtering.
func ExtractRegions(bin gocv.Mat, minArea, maxArea, connectivity int) ([]Region, int, error) {
	_, comps, err := labelComponents(bin, connectivity)
	if err != nil {
		return nil, 0, err
	}

	var regions []Region
	for l := 1; l < len(comps); l++ {
		c := comps[l]
		if c.area < minArea || c.area > maxArea {
			continue
		}
		x, y := c.centroid()
		regions = append(regions, NewRegion(l, x, y, c.area))
	}

	return regions, len(comps) - 1, nil
}
