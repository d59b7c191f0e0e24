package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/cache"
	"CoinPulse/internal/service/ratelimit"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Option configures Fetcher.
type Option func(*Fetcher)

// Fetcher is a GET client that remembers successful JSON responses for the
// lifetime of its EntryStore and coalesces concurrent misses on the same URL.
type Fetcher struct {
	provider string
	client   *xhttp.Client
	store    cache.EntryStore
	group    singleflight.Group
	limiter  ratelimit.Waiter
	metrics  repository.Metrics
	log      *logger.Logger
	timeout  time.Duration
	headers  map[string]string
}

// New creates a fetcher over store. The store decides the cache scope, usually one run.
func New(provider string, store cache.EntryStore, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider: provider,
		store:    store,
		metrics:  repository.NopMetrics{},
		log:      logger.NewNop(),
		timeout:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = xhttp.NewClient(xhttp.WithTimeout(f.timeout), xhttp.WithUserAgent("CoinPulse/1.0"))
	}
	return f
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithClient(c *xhttp.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithLimiter(l ratelimit.Waiter) Option { return func(f *Fetcher) { f.limiter = l } }

func WithMetrics(m repository.Metrics) Option {
	return func(f *Fetcher) {
		if m != nil {
			f.metrics = m
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l.Named("fetcher")
		}
	}
}

// WithHeader adds a header to every upstream request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(map[string]string)
		}
		f.headers[key] = value
	}
}

// Fetch returns the JSON body for rawURL. A cached entry is returned without a
// network call even when ctx is already done. Failures are never cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (json.RawMessage, error) {
	host := hostOf(rawURL)
	if e, ok := f.store.Lookup(rawURL); ok {
		f.metrics.RecordCacheHit(host)
		f.log.Debug("fetcher.cache_hit", logger.String("url", rawURL))
		return json.RawMessage(e.Value), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, wrapCtxErr("fetch "+rawURL, err)
	}
	f.metrics.RecordCacheMiss(host)

	// The request itself outlives the caller that started it and is bounded by
	// the fetch timeout. Until the request is sent, the starting caller's
	// cancellation still stops it.
	flightCtx := context.WithoutCancel(ctx)
	ch := f.group.DoChan(rawURL, func() (interface{}, error) {
		if e, ok := f.store.Lookup(rawURL); ok {
			return e.Value, nil
		}
		return f.fetch(ctx, flightCtx, rawURL, host)
	})

	select {
	case <-ctx.Done():
		return nil, wrapCtxErr("fetch "+rawURL, ctx.Err())
	case res := <-ch:
		if res.Shared {
			f.metrics.RecordCoalesced(host)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return json.RawMessage(res.Val.([]byte)), nil
	}
}

// fetch performs one upstream call. caller is checked before the limiter wait
// and again before the request is sent; ctx bounds the request.
func (f *Fetcher) fetch(caller, ctx context.Context, rawURL, host string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.limiter != nil {
		if err := caller.Err(); err != nil {
			return nil, wrapCtxErr("fetch "+rawURL, err)
		}
		waitCtx, stop := context.WithCancel(ctx)
		unhook := context.AfterFunc(caller, stop)
		err := f.limiter.Wait(waitCtx, host)
		unhook()
		stop()
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimited) {
				return nil, &models.ProviderError{Provider: f.provider, URL: rawURL, Status: 429, Err: err}
			}
			if cerr := caller.Err(); cerr != nil {
				err = cerr
			}
			return nil, wrapCtxErr("rate limit wait", err)
		}
	}
	if err := caller.Err(); err != nil {
		return nil, wrapCtxErr("fetch "+rawURL, err)
	}

	start := time.Now()
	body, err := f.client.Get(ctx, &xhttp.RequestOptions{
		URL:     rawURL,
		Headers: f.headers,
	})
	elapsed := time.Since(start)

	if err != nil {
		var se *xhttp.StatusError
		status := 0
		if errors.As(err, &se) {
			status = se.Status
		}
		f.metrics.RecordUpstream(host, status, elapsed.Seconds())
		f.log.Warn("fetcher.upstream_failed",
			logger.String("url", rawURL),
			logger.Int("status", status),
			logger.Duration("duration_ms", elapsed),
			logger.Error(err),
		)
		if status > 0 {
			return nil, &models.ProviderError{Provider: f.provider, URL: rawURL, Status: status, Err: err}
		}
		if isTimeout(err) {
			return nil, &models.TimeoutError{Op: "GET " + rawURL, Err: err}
		}
		return nil, &models.ProviderError{Provider: f.provider, URL: rawURL, Err: err}
	}
	f.metrics.RecordUpstream(host, 200, elapsed.Seconds())

	if !json.Valid(body) {
		return nil, &models.DecodingError{What: rawURL, Err: errors.New("response is not valid JSON")}
	}

	f.store.Store(models.CacheEntry{Key: rawURL, Value: body, FetchedAt: time.Now()})
	f.log.Debug("fetcher.stored",
		logger.String("url", rawURL),
		logger.Int("bytes", len(body)),
		logger.Duration("duration_ms", elapsed),
	)
	return body, nil
}

// FetchJSON fetches rawURL and decodes it into T.
func FetchJSON[T any](ctx context.Context, f *Fetcher, rawURL string) (T, error) {
	var out T
	raw, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &models.DecodingError{What: rawURL, Err: err}
	}
	return out, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func wrapCtxErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.TimeoutError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
