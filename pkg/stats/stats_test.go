package stats

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"single", []float64{7}, 7},
		{"odd sorted", []float64{2, 4, 6}, 4},
		{"even sorted", []float64{2, 4, 6, 8}, 5},
		{"odd unsorted", []float64{9, 1, 5}, 5},
		{"even unsorted", []float64{8, 2, 6, 4}, 5},
		{"negative angles", []float64{-10, -9}, -9.5},
		{"duplicates", []float64{3, 3, 3, 10}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			if !ok {
				t.Fatal("Expected ok median")
			}
			if got != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Input was modified: %v", values)
	}
}

func TestMedianEmpty(t *testing.T) {
	got, ok := Median(nil)
	if ok {
		t.Error("Expected ok=false for empty input")
	}
	if !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %f", got)
	}
}

func TestMedianInts(t *testing.T) {
	got, ok := MedianInts([]int{2, 4, 6, 8})
	if !ok || got != 5 {
		t.Errorf("Expected 5, got %f (ok=%v)", got, ok)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Count != 8 {
		t.Errorf("Expected count 8, got %d", s.Count)
	}
	if s.Mean != 5 {
		t.Errorf("Expected mean 5, got %f", s.Mean)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("Expected min 2 max 9, got %f %f", s.Min, s.Max)
	}
	if s.Median != 4.5 {
		t.Errorf("Expected median 4.5, got %f", s.Median)
	}
	// Sample standard deviation: sqrt(32/7)
	if math.Abs(s.StdDev-math.Sqrt(32.0/7.0)) > 1e-9 {
		t.Errorf("Expected std dev %f, got %f", math.Sqrt(32.0/7.0), s.StdDev)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
	if one := Summarize([]float64{3}); one.StdDev != 0 || one.Mean != 3 {
		t.Errorf("Expected mean 3 std 0, got %+v", one)
	}
}
