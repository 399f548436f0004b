package grid

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tma-mapper/internal/region"
)

// ProgressFunc is called with each angle immediately before it is evaluated.
type ProgressFunc func(angle int)

// Optimizer searches for the grid rotation that minimises the number of
// imaginary cores an Assigner has to infer.
type Optimizer struct {
	assigner Assigner
	base     Hyperparameters
	search   SearchParams
	progress ProgressFunc
	log      zerolog.Logger
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// WithProgress registers a per-angle progress callback.
func WithProgress(fn ProgressFunc) OptimizerOption {
	return func(o *Optimizer) {
		o.progress = fn
	}
}

// WithHyperparameters sets the hyperparameters every evaluation starts from.
// OriginAngle is overridden per evaluation.
func WithHyperparameters(hp Hyperparameters) OptimizerOption {
	return func(o *Optimizer) {
		o.base = hp
	}
}

// WithSearch replaces the default search ranges.
func WithSearch(p SearchParams) OptimizerOption {
	return func(o *Optimizer) {
		o.search = p
	}
}

// WithOptimizerLogger sets the logger used for search progress.
func WithOptimizerLogger(l zerolog.Logger) OptimizerOption {
	return func(o *Optimizer) {
		o.log = l.With().Str("component", "grid").Logger()
	}
}

// NewOptimizer returns an Optimizer driving the given assigner.
func NewOptimizer(a Assigner, opts ...OptimizerOption) (*Optimizer, error) {
	if a == nil {
		return nil, fmt.Errorf("grid: nil assigner")
	}
	o := &Optimizer{
		assigner: a,
		base:     DefaultHyperparameters(),
		search:   DefaultSearchParams(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.search.Validate(); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return o, nil
}

// FindOptimalAngle evaluates every fine-range angle and returns the median of
// the angles with the fewest imaginary cores. If that median falls outside the
// fine range, the coarse range is scanned as well, skipping angles already
// covered, and the median of the combined tie set is returned.
//
// The median of a set of fine-range angles always lies inside the fine range,
// so the coarse phase is not reached in practice. It is kept so the fallback
// exists if the trigger is ever loosened.
//
// The first evaluator error aborts the search and is returned wrapped with the
// angle that failed.
func (o *Optimizer) FindOptimalAngle(ctx context.Context, cores []region.Region) (float64, *SearchState, error) {
	if len(cores) == 0 {
		return 0, nil, ErrNoRegions
	}

	state := &SearchState{}
	if err := o.scan(ctx, cores, o.search.Fine.Angles(), state); err != nil {
		return 0, state, err
	}

	median, _ := state.Median()
	if o.search.Fine.Contains(median) {
		o.log.Info().
			Float64("angle", median).
			Int("imaginary", state.BestCount).
			Ints("ties", state.BestAngles).
			Msg("optimal angle found in fine range")
		return median, state, nil
	}

	o.log.Info().Float64("median", median).Msg("fine median out of range, scanning coarse range")
	return o.widen(ctx, cores, state)
}

// widen continues a search over the coarse range, skipping angles inside the
// fine range, and returns the median of the combined tie set.
func (o *Optimizer) widen(ctx context.Context, cores []region.Region, state *SearchState) (float64, *SearchState, error) {
	var coarse []int
	for _, a := range o.search.Coarse.Angles() {
		if !o.search.Fine.Contains(float64(a)) {
			coarse = append(coarse, a)
		}
	}
	state.Coarse = true
	if err := o.scan(ctx, cores, coarse, state); err != nil {
		return 0, state, err
	}

	median, _ := state.Median()
	o.log.Info().
		Float64("angle", median).
		Int("imaginary", state.BestCount).
		Ints("ties", state.BestAngles).
		Msg("optimal angle found in coarse range")
	return median, state, nil
}

// scan evaluates angles in order, folding each result into state.
func (o *Optimizer) scan(ctx context.Context, cores []region.Region, angles []int, state *SearchState) error {
	for _, angle := range angles {
		if err := ctx.Err(); err != nil {
			return err
		}
		count, err := o.evaluate(ctx, cores, angle)
		if err != nil {
			return err
		}
		state.observe(angle, count)
		o.log.Debug().Int("angle", angle).Int("imaginary", count).Msg("evaluated angle")
	}
	return nil
}

func (o *Optimizer) evaluate(ctx context.Context, cores []region.Region, angle int) (int, error) {
	if o.progress != nil {
		o.progress(angle)
	}
	assigned, err := o.assigner.Assign(ctx, cores, o.base.WithAngle(float64(angle)))
	if err != nil {
		return 0, fmt.Errorf("evaluate angle %d: %w", angle, err)
	}
	return CountImaginary(assigned), nil
}

// Apply runs the assigner once at the given angle, typically the result of
// FindOptimalAngle.
func (o *Optimizer) Apply(ctx context.Context, cores []region.Region, angle float64) ([]AssignedCore, error) {
	if len(cores) == 0 {
		return nil, ErrNoRegions
	}
	assigned, err := o.assigner.Assign(ctx, cores, o.base.WithAngle(angle))
	if err != nil {
		return nil, fmt.Errorf("apply angle %g: %w", angle, err)
	}
	return assigned, nil
}
