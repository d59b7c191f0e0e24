package metrics

import (
	"strconv"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coinpulse"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups *prometheus.CounterVec
	coalesced    *prometheus.CounterVec
	upstream     *prometheus.HistogramVec
	signals      *prometheus.HistogramVec
	score        *prometheus.GaugeVec
	decisions    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "cache_lookups_total",
				Help:      "Run cache lookups by host and result",
			},
			[]string{"host", "result"},
		),
		coalesced: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "coalesced_total",
				Help:      "Fetches that joined an in-flight request for the same URL",
			},
			[]string{"host"},
		),
		upstream: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream call latency by host and status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host", "status"},
		),
		signals: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "aggregator",
				Name:      "signal_duration_seconds",
				Help:      "Research task latency by signal and outcome",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"signal", "outcome"},
		),
		score: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "weighted_score",
				Help:      "Last weighted score per coin",
			},
			[]string{"coin"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Recommendations issued",
			},
			[]string{"recommendation"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCacheHit(host string) {
	r.cacheLookups.WithLabelValues(host, "hit").Inc()
}

func (r *Recorder) RecordCacheMiss(host string) {
	r.cacheLookups.WithLabelValues(host, "miss").Inc()
}

func (r *Recorder) RecordCoalesced(host string) {
	r.coalesced.WithLabelValues(host).Inc()
}

// RecordUpstream records one upstream call. Status 0 means a transport failure.
func (r *Recorder) RecordUpstream(host string, status int, seconds float64) {
	r.upstream.WithLabelValues(host, strconv.Itoa(status)).Observe(seconds)
}

func (r *Recorder) RecordSignal(name models.SignalName, outcome string, seconds float64) {
	r.signals.WithLabelValues(string(name), outcome).Observe(seconds)
}

func (r *Recorder) RecordScore(coin string, total float64, rec models.Recommendation) {
	r.score.WithLabelValues(coin).Set(total)
	r.decisions.WithLabelValues(string(rec)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
