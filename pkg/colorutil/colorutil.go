// Package colorutil provides shared overlay colors for the mapper tools.
package colorutil

import "image/color"

// Common overlay colors used throughout the application.
var (
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Core returns the outline color for a core: green when detected, red when
// the grid inferred it.
func Core(imaginary bool) color.RGBA {
	if imaginary {
		return Red
	}
	return Green
}
