package grid

import (
	"fmt"

	"tma-mapper/pkg/stats"
)

// SearchRange is an inclusive range of integer angles in degrees.
type SearchRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Step  int `json:"step"`
}

// Contains reports whether angle lies within [Start, End].
func (r SearchRange) Contains(angle float64) bool {
	return angle >= float64(r.Start) && angle <= float64(r.End)
}

// Angles lists the angles visited by the range.
func (r SearchRange) Angles() []int {
	var out []int
	for a := r.Start; a <= r.End; a += r.Step {
		out = append(out, a)
	}
	return out
}

func (r SearchRange) validate(name string) error {
	if r.Step <= 0 {
		return fmt.Errorf("%s range step must be positive, got %d", name, r.Step)
	}
	if r.Start > r.End {
		return fmt.Errorf("%s range start %d after end %d", name, r.Start, r.End)
	}
	return nil
}

// SearchParams configures the two-phase angle search.
type SearchParams struct {
	Fine   SearchRange `json:"fine"`
	Coarse SearchRange `json:"coarse"`
}

// DefaultSearchParams returns the standard ranges: every degree in [-10, 10],
// then every second degree in [-90, 90].
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Fine:   SearchRange{Start: -10, End: 10, Step: 1},
		Coarse: SearchRange{Start: -90, End: 90, Step: 2},
	}
}

// Validate checks both ranges.
func (p SearchParams) Validate() error {
	if err := p.Fine.validate("fine"); err != nil {
		return err
	}
	return p.Coarse.validate("coarse")
}

// SearchState tracks the lowest imaginary-core count seen and every angle
// that achieved it, in evaluation order.
type SearchState struct {
	BestCount  int   `json:"best_count"`
	BestAngles []int `json:"best_angles"`
	Evaluated  int   `json:"evaluated"`
	Coarse     bool  `json:"coarse"` // Whether the coarse phase ran
}

// observe records the count for one angle: a strictly lower count replaces
// the tie set, an equal count joins it.
func (s *SearchState) observe(angle, count int) {
	s.Evaluated++
	switch {
	case len(s.BestAngles) == 0 || count < s.BestCount:
		s.BestCount = count
		s.BestAngles = []int{angle}
	case count == s.BestCount:
		s.BestAngles = append(s.BestAngles, angle)
	}
}

// Median returns the median of the tie set; false if nothing was observed.
func (s *SearchState) Median() (float64, bool) {
	return stats.MedianInts(s.BestAngles)
}
