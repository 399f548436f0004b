package grid

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"tma-mapper/internal/region"
)

// countingAssigner reports counts[angle] imaginary cores, or fallback for
// angles not in the map, and records every angle it sees.
type countingAssigner struct {
	counts   map[int]int
	fallback int
	failAt   *int
	seen     []int
}

var errEvaluator = errors.New("evaluator failed")

func (a *countingAssigner) Assign(ctx context.Context, cores []region.Region, hp Hyperparameters) ([]AssignedCore, error) {
	angle := int(hp.OriginAngle)
	a.seen = append(a.seen, angle)
	if a.failAt != nil && *a.failAt == angle {
		return nil, errEvaluator
	}
	n, ok := a.counts[angle]
	if !ok {
		n = a.fallback
	}
	out := make([]AssignedCore, 0, len(cores)+n)
	for _, c := range cores {
		out = append(out, AssignedCore{Region: c})
	}
	for i := 0; i < n; i++ {
		out = append(out, AssignedCore{Imaginary: true})
	}
	return out, nil
}

func someCores() []region.Region {
	return []region.Region{
		region.NewRegion(1, 10, 10, 314),
		region.NewRegion(2, 50, 10, 314),
	}
}

func TestFindOptimalAngle(t *testing.T) {
	tests := []struct {
		name   string
		counts map[int]int
		want   float64
		ties   []int
	}{
		{
			name:   "even tie set averages middle pair",
			counts: map[int]int{2: 0, 4: 0, 6: 0, 8: 0},
			want:   5,
			ties:   []int{2, 4, 6, 8},
		},
		{
			name:   "odd tie set takes middle",
			counts: map[int]int{2: 1, 4: 1, 6: 1},
			want:   4,
			ties:   []int{2, 4, 6},
		},
		{
			name:   "single minimum",
			counts: map[int]int{-7: 0, 3: 1},
			want:   -7,
			ties:   []int{-7},
		},
		{
			name:   "half-integer median",
			counts: map[int]int{-1: 2, 0: 2},
			want:   -0.5,
			ties:   []int{-1, 0},
		},
		{
			name:   "all angles tie",
			counts: map[int]int{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &countingAssigner{counts: tt.counts, fallback: 5}
			opt, err := NewOptimizer(a)
			if err != nil {
				t.Fatalf("NewOptimizer failed: %v", err)
			}

			got, state, err := opt.FindOptimalAngle(context.Background(), someCores())
			if err != nil {
				t.Fatalf("FindOptimalAngle failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected angle %v, got %v", tt.want, got)
			}
			if got < -10 || got > 10 {
				t.Errorf("Expected angle within fine range, got %v", got)
			}
			if 2*got != math.Trunc(2*got) {
				t.Errorf("Expected integer or half-integer angle, got %v", got)
			}
			if state.Coarse {
				t.Error("Expected coarse phase not to run")
			}
			if state.Evaluated != 21 {
				t.Errorf("Expected 21 evaluations, got %d", state.Evaluated)
			}
			if tt.ties != nil && !equalInts(state.BestAngles, tt.ties) {
				t.Errorf("Expected ties %v, got %v", tt.ties, state.BestAngles)
			}
		})
	}
}

func TestFindOptimalAngleProgressOrder(t *testing.T) {
	a := &countingAssigner{fallback: 1}
	var progress []int
	opt, err := NewOptimizer(a, WithProgress(func(angle int) {
		// Progress must be reported before the evaluator sees the angle
		if len(a.seen) != len(progress) {
			t.Errorf("Expected progress before evaluation of angle %d", angle)
		}
		progress = append(progress, angle)
	}))
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	if _, _, err := opt.FindOptimalAngle(context.Background(), someCores()); err != nil {
		t.Fatalf("FindOptimalAngle failed: %v", err)
	}

	if len(progress) != 21 {
		t.Fatalf("Expected 21 progress calls, got %d", len(progress))
	}
	for i, angle := range progress {
		if angle != i-10 {
			t.Errorf("Expected progress[%d] = %d, got %d", i, i-10, angle)
		}
	}
	if !equalInts(progress, a.seen) {
		t.Errorf("Expected evaluations %v to match progress %v", a.seen, progress)
	}
}

func TestFindOptimalAngleEvaluatorError(t *testing.T) {
	fail := 3
	a := &countingAssigner{fallback: 1, failAt: &fail}
	opt, err := NewOptimizer(a)
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	_, _, err = opt.FindOptimalAngle(context.Background(), someCores())
	if err == nil {
		t.Fatal("Expected evaluator error")
	}
	if !errors.Is(err, errEvaluator) {
		t.Errorf("Expected error to wrap evaluator error, got %v", err)
	}
	if !strings.Contains(err.Error(), "evaluate angle 3") {
		t.Errorf("Expected error to name the angle, got %q", err.Error())
	}
	if last := a.seen[len(a.seen)-1]; last != 3 {
		t.Errorf("Expected search to stop at angle 3, last evaluated %d", last)
	}
	if len(a.seen) != 14 {
		t.Errorf("Expected 14 evaluations before abort, got %d", len(a.seen))
	}
}

func TestFindOptimalAngleNoRegions(t *testing.T) {
	a := &countingAssigner{}
	opt, err := NewOptimizer(a)
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	_, _, err = opt.FindOptimalAngle(context.Background(), nil)
	if !errors.Is(err, ErrNoRegions) {
		t.Errorf("Expected ErrNoRegions, got %v", err)
	}
	if len(a.seen) != 0 {
		t.Errorf("Expected no evaluations, got %d", len(a.seen))
	}
}

func TestFindOptimalAngleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &countingAssigner{}
	opt, err := NewOptimizer(a)
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	_, _, err = opt.FindOptimalAngle(ctx, someCores())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(a.seen) != 0 {
		t.Errorf("Expected no evaluations, got %d", len(a.seen))
	}
}

func TestWidenScansCoarseRange(t *testing.T) {
	a := &countingAssigner{counts: map[int]int{-40: 2, 60: 1, 80: 1}, fallback: 9}
	opt, err := NewOptimizer(a)
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	// State as left by a fine phase whose best was 2 imaginary cores at 5
	state := &SearchState{BestCount: 2, BestAngles: []int{5}, Evaluated: 21}
	got, state, err := opt.widen(context.Background(), someCores(), state)
	if err != nil {
		t.Fatalf("widen failed: %v", err)
	}

	if got != 70 {
		t.Errorf("Expected angle 70, got %v", got)
	}
	if !state.Coarse {
		t.Error("Expected Coarse to be set")
	}
	if state.BestCount != 1 {
		t.Errorf("Expected best count 1, got %d", state.BestCount)
	}
	if len(a.seen) != 80 {
		t.Errorf("Expected 80 coarse evaluations, got %d", len(a.seen))
	}
	for _, angle := range a.seen {
		if angle >= -10 && angle <= 10 {
			t.Errorf("Expected fine-range angle %d to be skipped", angle)
		}
	}
}

func TestWidenKeepsFineTies(t *testing.T) {
	a := &countingAssigner{counts: map[int]int{-90: 2}, fallback: 9}
	opt, err := NewOptimizer(a)
	if err != nil {
		t.Fatalf("NewOptimizer failed: %v", err)
	}

	state := &SearchState{BestCount: 2, BestAngles: []int{4, 8}}
	got, state, err := opt.widen(context.Background(), someCores(), state)
	if err != nil {
		t.Fatalf("widen failed: %v", err)
	}

	if !equalInts(state.BestAngles, []int{4, 8, -90}) {
		t.Errorf("Expected ties [4 8 -90], got %v", state.BestAngles)
	}
	if got != 4 {
		t.Errorf("Expected median 4, got %v", got)
	}
}

func TestSearchParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SearchParams)
		wantErr bool
	}{
		{"defaults", func(*SearchParams) {}, false},
		{"zero fine step", func(p *SearchParams) { p.Fine.Step = 0 }, true},
		{"inverted coarse", func(p *SearchParams) { p.Coarse.Start, p.Coarse.End = 10, -10 }, true},
		{"single angle", func(p *SearchParams) { p.Fine = SearchRange{Start: 3, End: 3, Step: 1} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultSearchParams()
			tt.modify(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewOptimizerRejectsNilAssigner(t *testing.T) {
	if _, err := NewOptimizer(nil); err == nil {
		t.Error("Expected error for nil assigner")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
