package region

import "fmt"

// DefaultParams returns detection parameters tuned for 512x512 model output.
func DefaultParams() Params {
	return Params{
		ProbabilityThreshold: 0, // Otsu alone decides

		// Core size window in mask pixels (inclusive)
		MinArea: 50,
		MaxArea: 10000,

		// Keep the inner 40% of each blob's depth as its seed
		DistanceMultiplier: 0.6,

		OpenIterations: 1,
		SmallHoleRatio: 0.5,
		Connectivity:   8,
	}
}

// Params holds parameters for region detection.
type Params struct {
	// Probability cut applied to the mask before binarization, in [0,1].
	// Zero feeds the raw probabilities to Otsu.
	ProbabilityThreshold float64 `json:"probability_threshold"`

	// Inclusive area window. MinArea > MaxArea is allowed and selects nothing.
	MinArea int `json:"min_area"`
	MaxArea int `json:"max_area"`

	// DistanceMultiplier (δ) scales D_max into the foreground threshold, (0,1].
	DistanceMultiplier float64 `json:"distance_multiplier"`

	OpenIterations int     `json:"open_iterations"`  // Erosion/dilation passes of the 3x3 opening
	SmallHoleRatio float64 `json:"small_hole_ratio"` // Holes below ratio*median area are filled
	Connectivity   int     `json:"connectivity"`     // 4 or 8
}

// WithAreaRange returns a copy of params with a new area window.
func (p Params) WithAreaRange(minArea, maxArea int) Params {
	p.MinArea = minArea
	p.MaxArea = maxArea
	return p
}

// WithDistanceMultiplier returns a copy of params with a new δ.
func (p Params) WithDistanceMultiplier(delta float64) Params {
	p.DistanceMultiplier = delta
	return p
}

// WithProbabilityThreshold returns a copy of params with a new mask cut.
func (p Params) WithProbabilityThreshold(t float64) Params {
	p.ProbabilityThreshold = t
	return p
}

// Validate checks the parameters, returning an error wrapping ErrPrecondition.
func (p Params) Validate() error {
	if p.MinArea <= 0 || p.MaxArea <= 0 {
		return fmt.Errorf("%w: area window must be positive, got [%d, %d]", ErrPrecondition, p.MinArea, p.MaxArea)
	}
	if p.DistanceMultiplier <= 0 || p.DistanceMultiplier > 1 {
		return fmt.Errorf("%w: distance multiplier %g outside (0,1]", ErrPrecondition, p.DistanceMultiplier)
	}
	if p.ProbabilityThreshold < 0 || p.ProbabilityThreshold > 1 {
		return fmt.Errorf("%w: probability threshold %g outside [0,1]", ErrPrecondition, p.ProbabilityThreshold)
	}
	if p.OpenIterations < 1 {
		return fmt.Errorf("%w: open iterations must be >= 1, got %d", ErrPrecondition, p.OpenIterations)
	}
	if p.SmallHoleRatio <= 0 {
		return fmt.Errorf("%w: small hole ratio must be positive, got %g", ErrPrecondition, p.SmallHoleRatio)
	}
	if p.Connectivity != 4 && p.Connectivity != 8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrPrecondition, p.Connectivity)
	}
	return nil
}
