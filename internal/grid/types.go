// Package grid searches for the rotation of a tissue-microarray grid that
// lets a row/column assigner place the detected cores with the fewest
// inferred ("imaginary") cores.
package grid

import (
	"context"
	"errors"

	"tma-mapper/internal/region"
)

// ErrNoRegions is returned when an angle search is started without cores.
var ErrNoRegions = errors.New("no regions to assign")

// AssignedCore places one core in the grid. Detected cores carry the Region
// they were produced from, unchanged; imaginary cores carry a synthesized
// Region with Label 0 at the position the grid expects them.
type AssignedCore struct {
	Region    region.Region `json:"region"`
	Row       int           `json:"row"`
	Col       int           `json:"col"`
	Imaginary bool          `json:"imaginary"`
}

// Hyperparameters is the bundle passed to an Assigner for one evaluation.
type Hyperparameters struct {
	OriginAngle float64 `json:"origin_angle"` // Grid rotation in degrees
	StartingX   float64 `json:"starting_x"`   // Rotation origin
	StartingY   float64 `json:"starting_y"`

	// RowGapFactor scales the median core radius into the rotated-Y gap
	// that starts a new row.
	RowGapFactor float64 `json:"row_gap_factor"`
}

// DefaultHyperparameters returns the assigner defaults.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{RowGapFactor: 1.0}
}

// WithAngle returns a copy of h with OriginAngle set.
func (h Hyperparameters) WithAngle(degrees float64) Hyperparameters {
	h.OriginAngle = degrees
	return h
}

// Assigner places cores into rows and columns for a given set of
// hyperparameters. Calls may be expensive and are never made concurrently by
// this package.
type Assigner interface {
	Assign(ctx context.Context, cores []region.Region, hp Hyperparameters) ([]AssignedCore, error)
}

// AssignerFunc adapts a function to the Assigner interface.
type AssignerFunc func(ctx context.Context, cores []region.Region, hp Hyperparameters) ([]AssignedCore, error)

// Assign calls f.
func (f AssignerFunc) Assign(ctx context.Context, cores []region.Region, hp Hyperparameters) ([]AssignedCore, error) {
	return f(ctx, cores, hp)
}

// CountImaginary returns how many cores in an assignment are imaginary.
func CountImaginary(cores []AssignedCore) int {
	n := 0
	for _, c := range cores {
		if c.Imaginary {
			n++
		}
	}
	return n
}
