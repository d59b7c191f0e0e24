package usecase

import (
	"context"
	"fmt"
	"strings"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/domain/service"
	"CoinPulse/internal/services/analytics"
)

// TaskOptions controls the history windows and search queries of a run.
type TaskOptions struct {
	PatternDays   int
	IndicatorDays int
	Queries       func(coinID string) []string
}

func (o TaskOptions) withDefaults() TaskOptions {
	if o.PatternDays <= 0 {
		o.PatternDays = analytics.DefaultPatternDays
	}
	if o.IndicatorDays <= 0 {
		o.IndicatorDays = analytics.DefaultIndicatorDays
	}
	if o.Queries == nil {
		o.Queries = func(coinID string) []string {
			return []string{coinID + " latest news", coinID + " reddit", coinID + " tweets"}
		}
	}
	return o
}

// NewSignalTasks builds the five research tasks in bundle order.
func NewSignalTasks(market repository.MarketDataProvider, search repository.SearchProvider, opts TaskOptions) []service.SignalTask {
	opts = opts.withDefaults()
	return []service.SignalTask{
		&pricePatternTask{market: market, days: opts.PatternDays},
		&indicatorsVolumeTask{market: market, indicatorDays: opts.IndicatorDays, volumeDays: opts.PatternDays},
		&sentimentTask{market: market},
		&internetSearchTask{search: search, queries: opts.Queries},
		&marketDataTask{market: market},
	}
}

type pricePatternTask struct {
	market repository.MarketDataProvider
	days   int
}

func (t *pricePatternTask) Name() models.SignalName { return models.SignalPricePattern }

func (t *pricePatternTask) Run(ctx context.Context, coinID string) models.SignalResult {
	chart, err := t.market.MarketChart(ctx, coinID, t.days)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	p, err := analytics.DetectPatterns(chart.Prices.Values())
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	return models.Ok(t.Name(), analytics.PricePatternSummary(p), p)
}

// indicatorsVolumeTask reads two windows: the indicator window for MA/RSI and
// the pattern window for volume, which shares its URL with price_pattern.
type indicatorsVolumeTask struct {
	market        repository.MarketDataProvider
	indicatorDays int
	volumeDays    int
}

func (t *indicatorsVolumeTask) Name() models.SignalName { return models.SignalIndicatorsVolume }

func (t *indicatorsVolumeTask) Run(ctx context.Context, coinID string) models.SignalResult {
	short, err := t.market.MarketChart(ctx, coinID, t.indicatorDays)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	prices := short.Prices.Values()
	ind, err := analytics.ComputeIndicators(prices, t.indicatorDays)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}

	long, err := t.market.MarketChart(ctx, coinID, t.volumeDays)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	vol, err := analytics.AnalyzeVolume(long.TotalVolumes.Values())
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}

	rec := models.IndicatorsVolume{Indicators: ind, Volume: vol, LastPrice: prices[len(prices)-1]}
	summary := analytics.IndicatorsSummary(ind) + "\n" + analytics.VolumeSummary(vol)
	return models.Ok(t.Name(), summary, rec)
}

type sentimentTask struct {
	market repository.MarketDataProvider
}

func (t *sentimentTask) Name() models.SignalName { return models.SignalSentiment }

func (t *sentimentTask) Run(ctx context.Context, coinID string) models.SignalResult {
	d, err := t.market.Coin(ctx, coinID)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	if d.VotesUpPct == nil && d.VotesDownPct == nil {
		return models.Unavailable(t.Name(), &models.DecodingError{
			What: "sentiment votes",
			Err:  fmt.Errorf("no vote percentages for %s", coinID),
		})
	}
	s := models.Sentiment{UpPct: deref(d.VotesUpPct), DownPct: deref(d.VotesDownPct)}
	summary := fmt.Sprintf("Up votes: %.2f%%, Down votes: %.2f%%", s.UpPct, s.DownPct)
	return models.Ok(t.Name(), summary, s)
}

type internetSearchTask struct {
	search  repository.SearchProvider
	queries func(coinID string) []string
}

func (t *internetSearchTask) Name() models.SignalName { return models.SignalInternetSearch }

func (t *internetSearchTask) Run(ctx context.Context, coinID string) models.SignalResult {
	if t.search == nil {
		return models.Unavailable(t.Name(), &models.ConfigError{Key: "tavily", Reason: "search provider not configured"})
	}
	res, err := t.search.Search(ctx, t.queries(coinID))
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	return models.Ok(t.Name(), res.Text, res)
}

type marketDataTask struct {
	market repository.MarketDataProvider
}

func (t *marketDataTask) Name() models.SignalName { return models.SignalMarketData }

func (t *marketDataTask) Run(ctx context.Context, coinID string) models.SignalResult {
	d, err := t.market.Coin(ctx, coinID)
	if err != nil {
		return models.Unavailable(t.Name(), err)
	}
	if d.Market.PriceUSD == nil {
		return models.Unavailable(t.Name(), &models.DecodingError{
			What: "market data",
			Err:  fmt.Errorf("no usd price for %s", coinID),
		})
	}
	m := toMarketData(d)
	return models.Ok(t.Name(), MarketDataSummary(m), m)
}

func toMarketData(d models.CoinDetail) models.MarketData {
	mk := d.Market
	return models.MarketData{
		Name:              d.Name,
		Symbol:            strings.ToUpper(d.Symbol),
		Rank:              d.MarketCapRank,
		PriceUSD:          deref(mk.PriceUSD),
		MarketCapUSD:      deref(mk.MarketCapUSD),
		Volume24hUSD:      deref(mk.Volume24hUSD),
		Change24hPct:      deref(mk.Change24hPct),
		Change7dPct:       deref(mk.Change7dPct),
		Change30dPct:      deref(mk.Change30dPct),
		ATHUSD:            deref(mk.ATHUSD),
		ATHChangePct:      deref(mk.ATHChangePct),
		ATLUSD:            deref(mk.ATLUSD),
		ATLChangePct:      deref(mk.ATLChangePct),
		CirculatingSupply: deref(mk.CirculatingSupply),
		TotalSupply:       deref(mk.TotalSupply),
		MaxSupply:         deref(mk.MaxSupply),
	}
}

// MarketDataSummary renders the market overview block.
func MarketDataSummary(m models.MarketData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), rank #%d\n", m.Name, m.Symbol, m.Rank)
	fmt.Fprintf(&b, "Price: %s, Market Cap: %s, 24h Volume: %s\n",
		analytics.USD(m.PriceUSD), analytics.USD(m.MarketCapUSD), analytics.USD(m.Volume24hUSD))
	fmt.Fprintf(&b, "Change: 24h %+.2f%%, 7d %+.2f%%, 30d %+.2f%%\n", m.Change24hPct, m.Change7dPct, m.Change30dPct)
	fmt.Fprintf(&b, "ATH: %s (%+.2f%%), ATL: %s (%+.2f%%)\n",
		analytics.USD(m.ATHUSD), m.ATHChangePct, analytics.USD(m.ATLUSD), m.ATLChangePct)
	if r, ok := m.SupplyRatio(); ok {
		fmt.Fprintf(&b, "Supply: %.0f circulating (%.1f%% of cap)\n", m.CirculatingSupply, r*100)
	}
	fmt.Fprintf(&b, "Volume/Market Cap: %.4f", m.VolumeToMarketCap())
	return b.String()
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
