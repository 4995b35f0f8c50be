package core

import (
	"math"
	"testing"
)

func TestInterval_ContainsAndSurrounds(t *testing.T) {
	interval := NewInterval(1.0, 3.0)

	tests := []struct {
		name      string
		value     float64
		contains  bool
		surrounds bool
	}{
		{"Below minimum", 0.5, false, false},
		{"At minimum", 1.0, true, false},
		{"Interior", 2.0, true, true},
		{"At maximum", 3.0, true, false},
		{"Above maximum", 3.5, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interval.Contains(tt.value); got != tt.contains {
				t.Errorf("Contains(%f) = %v, expected %v", tt.value, got, tt.contains)
			}
			if got := interval.Surrounds(tt.value); got != tt.surrounds {
				t.Errorf("Surrounds(%f) = %v, expected %v", tt.value, got, tt.surrounds)
			}
		})
	}
}

func TestInterval_EmptyAndUniverse(t *testing.T) {
	values := []float64{-1e18, -1.0, 0.0, 1.0, 1e18}

	for _, v := range values {
		if EmptyInterval.Contains(v) {
			t.Errorf("Empty interval should not contain %f", v)
		}
		if !UniverseInterval.Contains(v) {
			t.Errorf("Universe interval should contain %f", v)
		}
	}

	if EmptyInterval.Size() >= 0 {
		t.Errorf("Empty interval should have negative size, got %f", EmptyInterval.Size())
	}
	if !math.IsInf(UniverseInterval.Size(), 1) {
		t.Errorf("Universe interval should have infinite size, got %f", UniverseInterval.Size())
	}
}

func TestInterval_Clamp(t *testing.T) {
	interval := NewInterval(0.0, 1.0)

	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"Below range", -0.5, 0.0},
		{"Inside range", 0.25, 0.25},
		{"Above range", 1.5, 1.0},
		{"At minimum", 0.0, 0.0},
		{"At maximum", 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interval.Clamp(tt.value); got != tt.expected {
				t.Errorf("Clamp(%f) = %f, expected %f", tt.value, got, tt.expected)
			}
		})
	}
}

func TestInterval_SizeAndExpand(t *testing.T) {
	const tolerance = 1e-9

	interval := NewInterval(1.0, 4.0)
	if got := interval.Size(); math.Abs(got-3.0) > tolerance {
		t.Errorf("Expected size 3, got %f", got)
	}

	expanded := interval.Expand(2.0)
	if math.Abs(expanded.Min-0.0) > tolerance || math.Abs(expanded.Max-5.0) > tolerance {
		t.Errorf("Expected [0, 5], got [%f, %f]", expanded.Min, expanded.Max)
	}
	if got := expanded.Size(); math.Abs(got-5.0) > tolerance {
		t.Errorf("Expansion should grow size by delta, got %f", got)
	}
}
