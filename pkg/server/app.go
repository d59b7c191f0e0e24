package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	applogger "CoinPulse/pkg/logger"
)

// App owns the long-lived pieces of a CoinPulse process: the pipeline, the
// optional HTTP server and the resources that must be closed on exit.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	pipeline   *usecase.ResearchPipeline
	httpServer *xhttp.Server
	publisher  repository.ScorecardPublisher
	store      cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.ResearchPipeline,
	httpServer *xhttp.Server,
	publisher repository.ScorecardPublisher,
	store cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		pipeline:   pipeline,
		httpServer: httpServer,
		publisher:  publisher,
		store:      store,
	}
}

func (a *App) Pipeline() *usecase.ResearchPipeline { return a.pipeline }

func (a *App) Logger() *applogger.Logger { return a.log }

// Run starts the HTTP API and blocks until interrupted.
func (a *App) Run() error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("app.http_start_failed", applogger.Error(err))
		return err
	}
	a.log.Info("app.started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("report_mode", a.cfg.Report.Mode),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("app.shutdown_signal")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("app.http_shutdown_failed", applogger.Error(err))
	}
	a.Close()
	return nil
}

// Close releases sinks and backends. The log collector flushes through the
// publisher, so it goes first.
func (a *App) Close() {
	a.log.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("app.publisher_close_failed", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("app.cache_close_failed", applogger.Error(err))
		}
	}
	a.log.Info("app.stopped")
}
