package features

import (
	"math"
	"testing"
)

func TestMeanMinMax(t *testing.T) {
	xs := []float64{3, 1, 4, 1, 5}
	if m := Mean(xs); m != 2.8 {
		t.Fatalf("Mean=%v", m)
	}
	lo, hi := MinMax(xs)
	if lo != 1 || hi != 5 {
		t.Fatalf("MinMax=%v,%v", lo, hi)
	}
	if Mean(nil) != 0 {
		t.Fatalf("Mean(nil) should be 0")
	}
}

func TestPctChange(t *testing.T) {
	if got := PctChange(100, 112); math.Abs(got-12) > 1e-9 {
		t.Fatalf("PctChange=%v", got)
	}
	if PctChange(0, 5) != 0 {
		t.Fatalf("PctChange from zero should be 0")
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// population sd = 2, mean = 5
	if got := CoefficientOfVariation(xs); math.Abs(got-0.4) > 1e-6 {
		t.Fatalf("CV=%v want 0.4", got)
	}
	if CoefficientOfVariation([]float64{42}) != 0 {
		t.Fatalf("CV of single point should be 0")
	}
	if CoefficientOfVariation([]float64{5, 5, 5}) > 1e-9 {
		t.Fatalf("CV of flat series should be 0")
	}
}

func TestClampRound(t *testing.T) {
	if Clamp(120, 0, 100) != 100 || Clamp(-3, 0, 100) != 0 || Clamp(42, 0, 100) != 42 {
		t.Fatalf("Clamp wrong")
	}
	if Round2(40.004) != 40 || Round2(12.346) != 12.35 {
		t.Fatalf("Round2 wrong: %v %v", Round2(40.004), Round2(12.346))
	}
}
