package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// SignalName identifies one research task in the bundle.
type SignalName string

const (
	SignalPricePattern     SignalName = "price_pattern"
	SignalIndicatorsVolume SignalName = "indicators_volume"
	SignalSentiment        SignalName = "sentiment"
	SignalInternetSearch   SignalName = "internet_search"
	SignalMarketData       SignalName = "market_data"
)

// AllSignals lists the bundle keys in report order.
var AllSignals = []SignalName{
	SignalPricePattern,
	SignalIndicatorsVolume,
	SignalSentiment,
	SignalInternetSearch,
	SignalMarketData,
}

// SignalError is the tagged reason carried by an unavailable signal.
type SignalError struct {
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
	Err    error     `json:"-"`
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *SignalError) Unwrap() error { return e.Err }

// NewSignalError wraps err with its classified kind.
func NewSignalError(err error) *SignalError {
	var se *SignalError
	if errors.As(err, &se) {
		return se
	}
	return &SignalError{Kind: ClassifyError(err), Reason: err.Error(), Err: err}
}

// SignalResult is either Ok (Err == nil) with a summary and typed record, or Unavailable.
type SignalResult struct {
	Name    SignalName    `json:"name"`
	Summary string        `json:"summary,omitempty"`
	Data    any           `json:"data,omitempty"`
	Err     *SignalError  `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

func (r SignalResult) OK() bool { return r.Err == nil }

// Ok builds a successful result.
func Ok(name SignalName, summary string, data any) SignalResult {
	return SignalResult{Name: name, Summary: summary, Data: data}
}

// Unavailable builds a failed result from any error.
func Unavailable(name SignalName, err error) SignalResult {
	return SignalResult{Name: name, Err: NewSignalError(err)}
}

// Text renders the result the way reports and the LLM prompt expect it.
func (r SignalResult) Text() string {
	if r.Err != nil {
		return fmt.Sprintf("Unavailable (%s): %s", r.Err.Kind, r.Err.Reason)
	}
	return r.Summary
}

// Trend is the coarse direction of a price series.
type Trend string

const (
	TrendBullish  Trend = "Bullish"
	TrendBearish  Trend = "Bearish"
	TrendSideways Trend = "Sideways"
)

type PricePattern struct {
	Trend        Trend   `json:"trend"`
	ChangePct    float64 `json:"change_pct"`
	Support      float64 `json:"support"`
	Resistance   float64 `json:"resistance"`
	DoubleTop    bool    `json:"double_top"`
	DoubleBottom bool    `json:"double_bottom"`
	LastPrice    float64 `json:"last_price"`
	Volatility   float64 `json:"volatility"`
	Points       int     `json:"points"`
}

type Indicators struct {
	MA   float64 `json:"ma"`
	RSI  float64 `json:"rsi"`
	Days int     `json:"days"`
}

type VolumeStats struct {
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Last    float64 `json:"last"`
}

// IndicatorsVolume is the record behind the indicators_volume signal.
type IndicatorsVolume struct {
	Indicators Indicators  `json:"indicators"`
	Volume     VolumeStats `json:"volume"`
	LastPrice  float64     `json:"last_price"`
}

type Sentiment struct {
	UpPct   float64 `json:"up_pct"`
	DownPct float64 `json:"down_pct"`
}

type SearchHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// QueryResult is one query of a web research batch. Err is set for an inline failure.
type QueryResult struct {
	Query  string      `json:"query"`
	Answer string      `json:"answer,omitempty"`
	Hits   []SearchHit `json:"hits,omitempty"`
	Err    string      `json:"error,omitempty"`
}

type WebResearch struct {
	Queries []QueryResult `json:"queries"`
	Failed  int           `json:"failed"`
	Text    string        `json:"-"`
}

type MarketData struct {
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Rank              int     `json:"rank"`
	PriceUSD          float64 `json:"price_usd"`
	MarketCapUSD      float64 `json:"market_cap_usd"`
	Volume24hUSD      float64 `json:"volume_24h_usd"`
	Change24hPct      float64 `json:"change_24h_pct"`
	Change7dPct       float64 `json:"change_7d_pct"`
	Change30dPct      float64 `json:"change_30d_pct"`
	ATHUSD            float64 `json:"ath_usd"`
	ATHChangePct      float64 `json:"ath_change_pct"`
	ATLUSD            float64 `json:"atl_usd"`
	ATLChangePct      float64 `json:"atl_change_pct"`
	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`
	MaxSupply         float64 `json:"max_supply"`
}

// VolumeToMarketCap returns 24h volume over market cap, or 0 when unknown.
func (m MarketData) VolumeToMarketCap() float64 {
	if m.MarketCapUSD <= 0 {
		return 0
	}
	return m.Volume24hUSD / m.MarketCapUSD
}

// SupplyRatio returns circulating over max supply, falling back to total supply.
func (m MarketData) SupplyRatio() (float64, bool) {
	switch {
	case m.CirculatingSupply <= 0:
		return 0, false
	case m.MaxSupply > 0:
		return m.CirculatingSupply / m.MaxSupply, true
	case m.TotalSupply > 0:
		return m.CirculatingSupply / m.TotalSupply, true
	}
	return 0, false
}

// ResearchBundle maps every signal name to its result for one asset.
// It is immutable once built by the aggregator.
type ResearchBundle struct {
	AssetID     string
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	results     map[SignalName]SignalResult
}

// NewResearchBundle fills absent names with an Unavailable placeholder so the bundle is always complete.
func NewResearchBundle(assetID, runID string, started time.Time, results map[SignalName]SignalResult) *ResearchBundle {
	m := make(map[SignalName]SignalResult, len(AllSignals))
	for _, n := range AllSignals {
		r, ok := results[n]
		if !ok {
			r = Unavailable(n, fmt.Errorf("signal %s did not report", n))
		}
		r.Name = n
		m[n] = r
	}
	return &ResearchBundle{
		AssetID:     assetID,
		RunID:       runID,
		StartedAt:   started,
		CompletedAt: time.Now(),
		results:     m,
	}
}

func (b *ResearchBundle) Get(name SignalName) (SignalResult, bool) {
	r, ok := b.results[name]
	return r, ok
}

func (b *ResearchBundle) Len() int { return len(b.results) }

// Names returns the bundle keys sorted alphabetically.
func (b *ResearchBundle) Names() []SignalName {
	out := make([]SignalName, 0, len(b.results))
	for n := range b.results {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Results returns a copy of the result map.
func (b *ResearchBundle) Results() map[SignalName]SignalResult {
	out := make(map[SignalName]SignalResult, len(b.results))
	for k, v := range b.results {
		out[k] = v
	}
	return out
}

// Degraded lists unavailable signals in report order.
func (b *ResearchBundle) Degraded() []SignalName {
	var out []SignalName
	for _, n := range AllSignals {
		if r := b.results[n]; !r.OK() {
			out = append(out, n)
		}
	}
	return out
}

// Record returns the typed record behind name when the signal is Ok.
func Record[T any](b *ResearchBundle, name SignalName) (T, bool) {
	var zero T
	r, ok := b.results[name]
	if !ok || !r.OK() {
		return zero, false
	}
	v, ok := r.Data.(T)
	return v, ok
}
