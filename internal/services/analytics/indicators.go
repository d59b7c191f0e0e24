package analytics

import (
	"fmt"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/services/features"
)

// DefaultIndicatorDays is the RSI smoothing divisor and request window.
const DefaultIndicatorDays = 14

// ComputeIndicators returns the simple moving average and a naive RSI.
//
// Gains and losses are summed over consecutive differences and divided by
// days, not by the number of differences. When the average loss is zero RS
// is taken as 100, so a single point yields RSI = 100 - 100/101.
func ComputeIndicators(prices []float64, days int) (models.Indicators, error) {
	if len(prices) == 0 {
		return models.Indicators{}, fmt.Errorf("indicators: %w: empty price series", models.ErrInsufficientData)
	}
	if days <= 0 {
		days = DefaultIndicatorDays
	}

	var gains, losses float64
	for i := 1; i < len(prices); i++ {
		diff := prices[i] - prices[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(days)
	avgLoss := losses / float64(days)

	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}

	return models.Indicators{
		MA:   features.Mean(prices),
		RSI:  100 - 100/(1+rs),
		Days: days,
	}, nil
}

// IndicatorsSummary renders "MA: $X.XX, RSI: Y.YY".
func IndicatorsSummary(ind models.Indicators) string {
	return fmt.Sprintf("MA: %s, RSI: %.2f", USD(ind.MA), ind.RSI)
}
