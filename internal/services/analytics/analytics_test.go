package analytics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"CoinPulse/internal/domain/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestComputeIndicators(t *testing.T) {
	prices := []float64{10, 11, 10.5, 12, 11.5, 13}
	ind, err := ComputeIndicators(prices, 14)
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	if math.Abs(ind.MA-68.0/6) > 1e-9 {
		t.Fatalf("MA=%v", ind.MA)
	}
	// gains 1+1.5+1.5=4, losses 0.5+0.5=1; divisor cancels -> RS=4 -> RSI=80
	if !approx(ind.RSI, 80) {
		t.Fatalf("RSI=%v want 80", ind.RSI)
	}
	if ind.RSI < 0 || ind.RSI > 100 {
		t.Fatalf("RSI out of range: %v", ind.RSI)
	}
}

func TestComputeIndicatorsNoLosses(t *testing.T) {
	for _, prices := range [][]float64{{42}, {1, 2, 3, 4}} {
		ind, err := ComputeIndicators(prices, 0)
		if err != nil {
			t.Fatalf("ComputeIndicators(%v): %v", prices, err)
		}
		if !approx(ind.RSI, 100-100.0/101) {
			t.Fatalf("RSI(%v)=%v want 99.0099", prices, ind.RSI)
		}
		if ind.Days != DefaultIndicatorDays {
			t.Fatalf("days default=%d", ind.Days)
		}
	}
}

func TestComputeIndicatorsEmpty(t *testing.T) {
	_, err := ComputeIndicators(nil, 14)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}

func TestIndicatorsSummary(t *testing.T) {
	got := IndicatorsSummary(models.Indicators{MA: 1234.5, RSI: 55.556})
	if got != "MA: $1234.50, RSI: 55.56" {
		t.Fatalf("summary=%q", got)
	}
}

func TestDetectPatternsBullish(t *testing.T) {
	p, err := DetectPatterns([]float64{100, 105, 103, 108, 112})
	if err != nil {
		t.Fatalf("DetectPatterns: %v", err)
	}
	if p.Trend != models.TrendBullish || !approx(p.ChangePct, 12) {
		t.Fatalf("trend=%s pct=%v", p.Trend, p.ChangePct)
	}
	if p.Support != 100 || p.Resistance != 112 {
		t.Fatalf("support=%v resistance=%v", p.Support, p.Resistance)
	}
	if p.DoubleTop || p.DoubleBottom {
		t.Fatalf("unexpected patterns: %+v", p)
	}
	if TrendSummary(p) != "Bullish (+12.00%)" {
		t.Fatalf("trend summary=%q", TrendSummary(p))
	}
}

func TestDetectPatternsSymmetry(t *testing.T) {
	up := []float64{100, 105, 103, 108, 112}
	down := make([]float64, len(up))
	for i, v := range up {
		down[len(up)-1-i] = v
	}
	p, err := DetectPatterns(down)
	if err != nil {
		t.Fatalf("DetectPatterns: %v", err)
	}
	if p.Trend != models.TrendBearish {
		t.Fatalf("reversed series trend=%s want Bearish", p.Trend)
	}
	if p.Support != 100 || p.Resistance != 112 {
		t.Fatalf("levels changed under reversal: %+v", p)
	}
}

func reversed(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[len(xs)-1-i] = v
	}
	return out
}

func TestDetectPatternsReversalKeepsHeldPeak(t *testing.T) {
	series := []float64{100, 120, 105, 90, 106, 121, 104}
	fwd, err := DetectPatterns(series)
	if err != nil {
		t.Fatalf("DetectPatterns: %v", err)
	}
	rev, err := DetectPatterns(reversed(series))
	if err != nil {
		t.Fatalf("DetectPatterns reversed: %v", err)
	}
	if !fwd.DoubleTop || !rev.DoubleTop {
		t.Fatalf("double top fwd=%v rev=%v", fwd.DoubleTop, rev.DoubleTop)
	}
	if fwd.DoubleBottom != rev.DoubleBottom {
		t.Fatalf("double bottom fwd=%v rev=%v", fwd.DoubleBottom, rev.DoubleBottom)
	}
}

func TestComputeIndicatorsRandomSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		prices := make([]float64, 2+rng.Intn(60))
		var sum float64
		for j := range prices {
			prices[j] = 0.01 + rng.Float64()*1000
			sum += prices[j]
		}
		days := 1 + rng.Intn(30)
		ind, err := ComputeIndicators(prices, days)
		if err != nil {
			t.Fatalf("ComputeIndicators: %v", err)
		}
		if ind.RSI < 0 || ind.RSI > 100 {
			t.Fatalf("RSI=%v out of range for %v", ind.RSI, prices)
		}
		if mean := sum / float64(len(prices)); math.Abs(ind.MA-mean) > 1e-9*math.Max(1, mean) {
			t.Fatalf("MA=%v want %v", ind.MA, mean)
		}
	}
}

func TestDetectPatternsBothFlags(t *testing.T) {
	// halves [100,103] and [101,102]: highs and lows each within 3%, change +2%
	p, err := DetectPatterns([]float64{100, 103, 101, 102})
	if err != nil {
		t.Fatalf("DetectPatterns: %v", err)
	}
	if !p.DoubleTop || !p.DoubleBottom {
		t.Fatalf("want both patterns, got %+v", p)
	}
	if PatternSummary(p) != "Double Top and Double Bottom pattern detected." {
		t.Fatalf("pattern summary=%q", PatternSummary(p))
	}
	if p.Trend != models.TrendSideways {
		t.Fatalf("trend=%s", p.Trend)
	}
}

func TestDetectPatternsTooShort(t *testing.T) {
	for _, prices := range [][]float64{nil, {1}} {
		if _, err := DetectPatterns(prices); !errors.Is(err, models.ErrInsufficientData) {
			t.Fatalf("DetectPatterns(%v) err=%v", prices, err)
		}
	}
}

func TestClassifyTrendBoundaries(t *testing.T) {
	cases := []struct {
		last float64
		want models.Trend
	}{
		{105, models.TrendSideways},
		{105.01, models.TrendBullish},
		{95, models.TrendSideways},
		{94.99, models.TrendBearish},
	}
	for _, c := range cases {
		if got, _ := ClassifyTrend(100, c.last); got != c.want {
			t.Fatalf("ClassifyTrend(100,%v)=%s want %s", c.last, got, c.want)
		}
	}
}

func TestAnalyzeVolume(t *testing.T) {
	v, err := AnalyzeVolume([]float64{10, 30, 20})
	if err != nil {
		t.Fatalf("AnalyzeVolume: %v", err)
	}
	if v.Average != 20 || v.Max != 30 || v.Min != 10 || v.Last != 20 {
		t.Fatalf("stats=%+v", v)
	}
	if s := VolumeSummary(v); s != "Avg Vol: 20, Max Vol: 30, Min Vol: 10" {
		t.Fatalf("summary=%q", s)
	}
	if _, err := AnalyzeVolume(nil); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}
