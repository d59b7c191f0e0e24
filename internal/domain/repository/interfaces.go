package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// MarketDataProvider exposes the market-data endpoints used by the research tasks.
type MarketDataProvider interface {
	MarketChart(ctx context.Context, coinID string, days int) (models.MarketChart, error)
	Coin(ctx context.Context, coinID string) (models.CoinDetail, error)
}

// SearchProvider runs a batch of web searches. A per-query failure is reported
// inside the result; only a batch-level failure returns an error.
type SearchProvider interface {
	Search(ctx context.Context, queries []string) (models.WebResearch, error)
}

// ScorecardPublisher emits a finished scorecard to downstream consumers.
type ScorecardPublisher interface {
	PublishScorecard(ctx context.Context, card *models.ScoreCard) error
	Close() error
}

// Notifier pushes a short human-readable message about a run.
type Notifier interface {
	Notify(ctx context.Context, card *models.ScoreCard, report string) error
}

type Metrics interface {
	RecordCacheHit(host string)
	RecordCacheMiss(host string)
	RecordCoalesced(host string)
	RecordUpstream(host string, status int, seconds float64)
	RecordSignal(name models.SignalName, kind string, seconds float64)
	RecordScore(coin string, total float64, rec models.Recommendation)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit(string)                              {}
func (NopMetrics) RecordCacheMiss(string)                             {}
func (NopMetrics) RecordCoalesced(string)                             {}
func (NopMetrics) RecordUpstream(string, int, float64)                {}
func (NopMetrics) RecordSignal(models.SignalName, string, float64)    {}
func (NopMetrics) RecordScore(string, float64, models.Recommendation) {}
func (NopMetrics) RecordError(string)                                 {}
func (NopMetrics) RecordLatency(string, float64)                      {}
