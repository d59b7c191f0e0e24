package analytics

import (
	"fmt"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/services/features"

	"github.com/shopspring/decimal"
)

// AnalyzeVolume returns mean, max, min and last of a volume series.
func AnalyzeVolume(volumes []float64) (models.VolumeStats, error) {
	if len(volumes) == 0 {
		return models.VolumeStats{}, fmt.Errorf("volume: %w: empty volume series", models.ErrInsufficientData)
	}
	lo, hi := features.MinMax(volumes)
	return models.VolumeStats{
		Average: features.Mean(volumes),
		Max:     hi,
		Min:     lo,
		Last:    volumes[len(volumes)-1],
	}, nil
}

// VolumeSummary renders "Avg Vol: N, Max Vol: N, Min Vol: N" with whole numbers.
func VolumeSummary(v models.VolumeStats) string {
	return fmt.Sprintf("Avg Vol: %s, Max Vol: %s, Min Vol: %s",
		decimal.NewFromFloat(v.Average).StringFixed(0),
		decimal.NewFromFloat(v.Max).StringFixed(0),
		decimal.NewFromFloat(v.Min).StringFixed(0),
	)
}

// USD formats an amount as $X.XX.
func USD(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
