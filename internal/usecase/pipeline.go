package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/domain/service"
	"CoinPulse/internal/service/cache"
	"CoinPulse/pkg/logger"

	"github.com/google/uuid"
)

// MarketFactory builds a market-data provider bound to one run's cache.
type MarketFactory func(store cache.EntryStore) repository.MarketDataProvider

type PipelineConfig struct {
	Timeout       time.Duration
	PatternDays   int
	IndicatorDays int
	Queries       func(coinID string) []string
}

// RunRequest describes one pipeline run. Zero day windows fall back to the pipeline defaults.
type RunRequest struct {
	CoinID        string
	PatternDays   int
	IndicatorDays int
	Observer      Observer
}

type RunResult struct {
	RunID  string
	Bundle *models.ResearchBundle
	Card   *models.ScoreCard
	Report string
}

// ResearchPipeline runs aggregate, score and report for one asset, then
// hands the scorecard to the optional sinks.
type ResearchPipeline struct {
	cfg       PipelineConfig
	newMarket MarketFactory
	search    repository.SearchProvider
	synth     service.ReportSynthesizer
	publisher repository.ScorecardPublisher
	notifier  repository.Notifier
	metrics   repository.Metrics
	log       *logger.Logger
}

func NewResearchPipeline(
	cfg PipelineConfig,
	newMarket MarketFactory,
	search repository.SearchProvider,
	synth service.ReportSynthesizer,
	publisher repository.ScorecardPublisher,
	notifier repository.Notifier,
	metrics repository.Metrics,
	log *logger.Logger,
) *ResearchPipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ResearchPipeline{
		cfg:       cfg,
		newMarket: newMarket,
		search:    search,
		synth:     synth,
		publisher: publisher,
		notifier:  notifier,
		metrics:   metrics,
		log:       log,
	}
}

func (p *ResearchPipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	coinID := strings.ToLower(strings.TrimSpace(req.CoinID))
	if coinID == "" {
		return nil, fmt.Errorf("coin id required")
	}
	start := time.Now()
	runID := uuid.NewString()

	opts := TaskOptions{
		PatternDays:   p.cfg.PatternDays,
		IndicatorDays: p.cfg.IndicatorDays,
		Queries:       p.cfg.Queries,
	}
	if req.PatternDays > 0 {
		opts.PatternDays = req.PatternDays
	}
	if req.IndicatorDays > 0 {
		opts.IndicatorDays = req.IndicatorDays
	}

	// Each run gets a fresh cache so entries never outlive it.
	store := cache.NewRunCache()
	market := p.newMarket(store)
	agg := NewResearchAggregator(NewSignalTasks(market, p.search, opts), p.log, p.metrics)

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	bundle := agg.Aggregate(runCtx, coinID, runID, req.Observer)
	cancel()
	p.log.Debug("pipeline.fetched",
		logger.String("run_id", runID),
		logger.Int("entries", store.Len()),
		logger.Strings("urls", store.Keys()),
	)

	card := Score(bundle)
	p.metrics.RecordScore(coinID, card.WeightedTotal, card.Recommendation)
	p.log.Info("pipeline.scored",
		logger.String("run_id", runID),
		logger.String("coin", coinID),
		logger.Float64("total", card.WeightedTotal),
		logger.String("recommendation", string(card.Recommendation)),
		logger.Int("risk", card.Risk),
	)

	res := &RunResult{RunID: runID, Bundle: bundle, Card: card}
	if p.synth != nil {
		report, err := p.synth.Synthesize(ctx, bundle, card)
		if err != nil {
			p.metrics.RecordError(string(models.ClassifyError(err)))
			return res, fmt.Errorf("synthesize report: %w", err)
		}
		res.Report = report
	}

	p.emit(ctx, res)
	p.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	return res, nil
}

// emit delivers the scorecard to the sinks. Sink failures are logged only.
func (p *ResearchPipeline) emit(ctx context.Context, res *RunResult) {
	if p.publisher != nil {
		if err := p.publisher.PublishScorecard(ctx, res.Card); err != nil {
			p.log.Warn("pipeline.publish_failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, res.Card, res.Report); err != nil {
			p.log.Warn("pipeline.notify_failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
}
