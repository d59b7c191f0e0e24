package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/domain/service"
	"CoinPulse/pkg/logger"
)

// Observer is called from the collecting goroutine each time a task settles.
type Observer func(res models.SignalResult)

// ResearchAggregator runs every signal task concurrently and collects the
// results into a complete bundle. A failing task never cancels its siblings.
type ResearchAggregator struct {
	tasks   []service.SignalTask
	log     *logger.Logger
	metrics repository.Metrics
}

func NewResearchAggregator(tasks []service.SignalTask, log *logger.Logger, metrics repository.Metrics) *ResearchAggregator {
	if log == nil {
		log = logger.NewNop()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &ResearchAggregator{tasks: tasks, log: log.Named("aggregator"), metrics: metrics}
}

// Aggregate blocks until every task has reported.
func (a *ResearchAggregator) Aggregate(ctx context.Context, coinID, runID string, observe Observer) *models.ResearchBundle {
	started := time.Now()

	type item struct {
		name models.SignalName
		res  models.SignalResult
	}
	ch := make(chan item, len(a.tasks))
	var wg sync.WaitGroup

	for _, task := range a.tasks {
		wg.Add(1)
		go func(t service.SignalTask) {
			defer wg.Done()
			ch <- item{t.Name(), a.run(ctx, t, coinID)}
		}(task)
	}

	go func() { wg.Wait(); close(ch) }()

	results := make(map[models.SignalName]models.SignalResult, len(a.tasks))
	for it := range ch {
		results[it.name] = it.res

		kind := "ok"
		if !it.res.OK() {
			kind = string(it.res.Err.Kind)
			a.metrics.RecordError(kind)
		}
		a.metrics.RecordSignal(it.name, kind, it.res.Elapsed.Seconds())
		a.log.Debug("aggregator.task_settled",
			logger.String("run_id", runID),
			logger.String("signal", string(it.name)),
			logger.String("outcome", kind),
			logger.Duration("elapsed", it.res.Elapsed),
		)
		if observe != nil {
			observe(it.res)
		}
	}

	bundle := models.NewResearchBundle(coinID, runID, started, results)
	a.log.Info("aggregator.completed",
		logger.String("run_id", runID),
		logger.String("coin", coinID),
		logger.Int("degraded", len(bundle.Degraded())),
		logger.Duration("elapsed", time.Since(started)),
	)
	return bundle
}

func (a *ResearchAggregator) run(ctx context.Context, t service.SignalTask, coinID string) (res models.SignalResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregator.task_panic",
				logger.String("signal", string(t.Name())),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
			res = models.Unavailable(t.Name(), fmt.Errorf("task panicked: %v", r))
		}
		res.Name = t.Name()
		res.Elapsed = time.Since(start)
	}()
	return t.Run(ctx, coinID)
}
