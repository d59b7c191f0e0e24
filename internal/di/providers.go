package di

import (
	"context"
	"fmt"

	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/domain/service"
	"CoinPulse/internal/handler/api"
	internalrepo "CoinPulse/internal/repository"
	icache "CoinPulse/internal/service/cache"
	"CoinPulse/internal/service/coingecko"
	"CoinPulse/internal/service/fetcher"
	"CoinPulse/internal/service/notify"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/service/report"
	"CoinPulse/internal/service/tavily"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/metrics"
	"CoinPulse/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideKafkaProducer creates a Kafka producer. Disabled Kafka yields nil.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideScorecardPublisher wraps the producer. A nil producer means no sink.
func ProvideScorecardPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ScorecardPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideLogger builds the root logger. When a Kafka publisher exists the
// error collector is attached before any component derives a child logger.
func ProvideLogger(cfg *config.Config, pub repository.ScorecardPublisher) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if kp, ok := pub.(*internalrepo.KafkaPublisher); ok {
		l.AddCollector(&logger.CollectionConfig{
			IncludeWarn: true,
			Topic:       cfg.Kafka.LogTopic,
			Publisher:   kp,
		})
	}
	return l, nil
}

func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCacheService opens the shared cache backing the provider rate limiter.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" {
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(cache.WithMemoryCleanup(cfg.RateLimit.Window)), nil
}

// ProvideProviderLimiter throttles calls to market-data hosts.
func ProvideProviderLimiter(cfg *config.Config, store cache.Service) ratelimit.Waiter {
	rl := cfg.RateLimit
	switch {
	case !rl.Enabled:
		return nil
	case rl.Backend == "redis":
		return ratelimit.NewWindowLimiter(store, int64(rl.Capacity), rl.Window, rl.MaxWait)
	default:
		return ratelimit.New(rl.Capacity, rl.Refill, rl.MaxWait)
	}
}

// ProvideClientLimiter throttles HTTP research requests per client IP.
func ProvideClientLimiter(cfg *config.Config) api.ClientLimiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.Refill, 0)
}

// ProvideMarketFactory returns a CoinGecko client builder bound to one run's cache.
func ProvideMarketFactory(
	cfg *config.Config,
	limiter ratelimit.Waiter,
	m repository.Metrics,
	l *logger.Logger,
) usecase.MarketFactory {
	opts := []fetcher.Option{
		fetcher.WithTimeout(cfg.CoinGecko.Timeout),
		fetcher.WithMetrics(m),
		fetcher.WithLogger(l),
	}
	if limiter != nil {
		opts = append(opts, fetcher.WithLimiter(limiter))
	}
	if key := cfg.CoinGecko.APIKey; key != "" {
		header := "x-cg-demo-api-key"
		if cfg.CoinGecko.Pro {
			header = "x-cg-pro-api-key"
		}
		opts = append(opts, fetcher.WithHeader(header, key))
	}
	return func(store icache.EntryStore) repository.MarketDataProvider {
		return coingecko.New(cfg.CoinGecko.BaseURL, fetcher.New("coingecko", store, opts...))
	}
}

func ProvideSearchProvider(cfg *config.Config, l *logger.Logger, m repository.Metrics) repository.SearchProvider {
	return tavily.New(tavily.Config{
		BaseURL:     cfg.Tavily.BaseURL,
		APIKey:      cfg.Tavily.APIKey,
		SearchDepth: cfg.Tavily.SearchDepth,
		MaxResults:  cfg.Tavily.MaxResults,
		Timeout:     cfg.Tavily.Timeout,
	}, l, m)
}

// ProvideSynthesizer picks the report writer from report.mode.
func ProvideSynthesizer(cfg *config.Config, l *logger.Logger) (service.ReportSynthesizer, error) {
	if cfg.Report.Mode != "llm" {
		return report.Markdown{}, nil
	}
	s, err := report.NewLLM(context.Background(), report.LLMConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, l)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func ProvideNotifier(cfg *config.Config) (repository.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	t, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return t, nil
}

func ProvidePipeline(
	cfg *config.Config,
	newMarket usecase.MarketFactory,
	search repository.SearchProvider,
	synth service.ReportSynthesizer,
	pub repository.ScorecardPublisher,
	notifier repository.Notifier,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ResearchPipeline {
	return usecase.NewResearchPipeline(
		usecase.PipelineConfig{
			Timeout:       cfg.Pipeline.Timeout,
			PatternDays:   cfg.Research.PatternDays,
			IndicatorDays: cfg.Research.IndicatorDays,
			Queries:       cfg.QueriesFor,
		},
		newMarket, search, synth, pub, notifier, m, l,
	)
}

func ProvideResearchHandler(l *logger.Logger, p *usecase.ResearchPipeline, limiter api.ClientLimiter) *api.ResearchHandler {
	return api.NewResearchHandler(l, p, limiter)
}

func ProvideHTTPServer(cfg *config.Config, h *api.ResearchHandler, l *logger.Logger) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithCORS(cfg.Server.CORSOrigins...),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(path),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	p *usecase.ResearchPipeline,
	srv *xhttp.Server,
	pub repository.ScorecardPublisher,
	store cache.Service,
) *server.App {
	return server.New(cfg, l, p, srv, pub, store)
}
