package analytics

import (
	"fmt"
	"math"
	"strings"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/services/features"
)

const (
	// DefaultPatternDays is the market chart window for trend and pattern analysis.
	DefaultPatternDays = 30

	trendThresholdPct = 5.0
	patternTolerance  = 0.03
)

// ClassifyTrend maps the first-to-last percentage change to a trend.
func ClassifyTrend(first, last float64) (models.Trend, float64) {
	pct := features.PctChange(first, last)
	switch {
	case pct > trendThresholdPct:
		return models.TrendBullish, pct
	case pct < -trendThresholdPct:
		return models.TrendBearish, pct
	default:
		return models.TrendSideways, pct
	}
}

// DetectPatterns computes trend, support/resistance, double top/bottom and
// volatility for a price series. The series is split at floor(n/2); both
// patterns may be reported at once.
func DetectPatterns(prices []float64) (models.PricePattern, error) {
	n := len(prices)
	if n < 2 {
		return models.PricePattern{}, fmt.Errorf("patterns: %w: need at least 2 prices, got %d", models.ErrInsufficientData, n)
	}

	trend, pct := ClassifyTrend(prices[0], prices[n-1])
	support, resistance := features.MinMax(prices)

	mid := n / 2
	firstLow, firstHigh := features.MinMax(prices[:mid])
	secondLow, secondHigh := features.MinMax(prices[mid:])

	return models.PricePattern{
		Trend:        trend,
		ChangePct:    pct,
		Support:      support,
		Resistance:   resistance,
		DoubleTop:    within(firstHigh, secondHigh),
		DoubleBottom: within(firstLow, secondLow),
		LastPrice:    prices[n-1],
		Volatility:   features.CoefficientOfVariation(prices),
		Points:       n,
	}, nil
}

func within(a, b float64) bool {
	if a == 0 {
		return false
	}
	return math.Abs(a-b)/a < patternTolerance
}

// TrendSummary renders "Bullish (+12.00%)" style text.
func TrendSummary(p models.PricePattern) string {
	if p.Trend == models.TrendBullish {
		return fmt.Sprintf("%s (+%.2f%%)", p.Trend, p.ChangePct)
	}
	return fmt.Sprintf("%s (%.2f%%)", p.Trend, p.ChangePct)
}

func PatternSummary(p models.PricePattern) string {
	var found []string
	if p.DoubleTop {
		found = append(found, "Double Top")
	}
	if p.DoubleBottom {
		found = append(found, "Double Bottom")
	}
	if len(found) == 0 {
		return "No clear pattern detected."
	}
	return strings.Join(found, " and ") + " pattern detected."
}

// PricePatternSummary joins trend, levels and pattern lines.
func PricePatternSummary(p models.PricePattern) string {
	return strings.Join([]string{
		"Trend: " + TrendSummary(p),
		fmt.Sprintf("Support: %s, Resistance: %s", USD(p.Support), USD(p.Resistance)),
		"Pattern: " + PatternSummary(p),
		fmt.Sprintf("Volatility: %.2f%%", p.Volatility*100),
	}, "\n")
}
