package service

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// SignalTask produces one named signal for an asset. Implementations never
// return an error: failures are folded into an Unavailable result.
type SignalTask interface {
	Name() models.SignalName
	Run(ctx context.Context, coinID string) models.SignalResult
}

// ReportSynthesizer turns a bundle and its scorecard into a readable report.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, bundle *models.ResearchBundle, card *models.ScoreCard) (string, error)
}
