package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/domain/service"
	"CoinPulse/internal/service/cache"
	"CoinPulse/internal/service/coingecko"
	"CoinPulse/internal/service/fetcher"
)

type stubTask struct {
	name models.SignalName
	run  func(ctx context.Context) models.SignalResult
}

func (s stubTask) Name() models.SignalName { return s.name }
func (s stubTask) Run(ctx context.Context, _ string) models.SignalResult {
	return s.run(ctx)
}

func TestAggregatorAlwaysCompleteBundle(t *testing.T) {
	tasks := []service.SignalTask{
		stubTask{models.SignalPricePattern, func(context.Context) models.SignalResult {
			return models.Ok(models.SignalPricePattern, "ok", models.PricePattern{Trend: models.TrendBullish})
		}},
		stubTask{models.SignalSentiment, func(context.Context) models.SignalResult {
			panic("boom")
		}},
		stubTask{models.SignalMarketData, func(context.Context) models.SignalResult {
			return models.Unavailable(models.SignalMarketData, &models.ProviderError{Provider: "coingecko", Status: 503})
		}},
	}

	var mu sync.Mutex
	var seen []models.SignalName
	agg := NewResearchAggregator(tasks, nil, nil)
	b := agg.Aggregate(context.Background(), "bitcoin", "run-1", func(r models.SignalResult) {
		mu.Lock()
		seen = append(seen, r.Name)
		mu.Unlock()
	})

	if b.Len() != 5 {
		t.Fatalf("bundle has %d keys, want 5", b.Len())
	}
	if len(seen) != 3 {
		t.Fatalf("observer saw %d results, want 3", len(seen))
	}
	if r, _ := b.Get(models.SignalPricePattern); !r.OK() {
		t.Fatalf("price_pattern should be ok: %+v", r)
	}
	if r, _ := b.Get(models.SignalSentiment); r.OK() || !strings.Contains(r.Err.Reason, "panicked") {
		t.Fatalf("panic not converted: %+v", r)
	}
	if r, _ := b.Get(models.SignalMarketData); r.OK() || r.Err.Kind != models.KindProvider {
		t.Fatalf("market_data kind: %+v", r)
	}
	if r, _ := b.Get(models.SignalInternetSearch); r.OK() {
		t.Fatalf("missing task must be unavailable")
	}
	if got := len(b.Degraded()); got != 4 {
		t.Fatalf("degraded=%d want 4", got)
	}
}

func TestAggregatorNoSiblingCancellation(t *testing.T) {
	slowDone := make(chan struct{})
	tasks := []service.SignalTask{
		stubTask{models.SignalPricePattern, func(context.Context) models.SignalResult {
			return models.Unavailable(models.SignalPricePattern, errors.New("fast failure"))
		}},
		stubTask{models.SignalSentiment, func(ctx context.Context) models.SignalResult {
			select {
			case <-ctx.Done():
				return models.Unavailable(models.SignalSentiment, ctx.Err())
			case <-time.After(30 * time.Millisecond):
			}
			close(slowDone)
			return models.Ok(models.SignalSentiment, "Up votes: 60.00%, Down votes: 40.00%", models.Sentiment{UpPct: 60, DownPct: 40})
		}},
	}
	b := NewResearchAggregator(tasks, nil, nil).Aggregate(context.Background(), "eth", "run-2", nil)
	select {
	case <-slowDone:
	default:
		t.Fatalf("aggregate returned before slow task finished")
	}
	if r, _ := b.Get(models.SignalSentiment); !r.OK() {
		t.Fatalf("slow sibling was cancelled: %+v", r)
	}
}

func allUnavailable() *models.ResearchBundle {
	return models.NewResearchBundle("x", "run", time.Now(), nil)
}

func TestScoreAllUnavailable(t *testing.T) {
	card := Score(allUnavailable())
	if card.Technical != 50 || card.Fundamental != 50 || card.Sentiment != 50 || card.Risk != 5 {
		t.Fatalf("sub-scores not neutral: %+v", card)
	}
	if card.WeightedTotal != 40 {
		t.Fatalf("total=%v want 40", card.WeightedTotal)
	}
	if card.Recommendation != models.Hold {
		t.Fatalf("rec=%s want HOLD", card.Recommendation)
	}
	if len(card.Degraded) != 5 {
		t.Fatalf("degraded=%v", card.Degraded)
	}
}

func TestRecommendThresholds(t *testing.T) {
	cases := []struct {
		total float64
		risk  int
		want  models.Recommendation
	}{
		{75, 5, models.StrongBuy},
		{75, 6, models.Hold}, // no rule matches
		{70, 5, models.Buy},
		{55, 6, models.Buy},
		{60, 7, models.Hold},
		{60, 8, models.Sell},
		{54.99, 9, models.Hold},
		{40, 3, models.Hold},
		{39.99, 2, models.Sell},
		{0, 10, models.Sell},
	}
	for _, c := range cases {
		if got := Recommend(c.total, c.risk); got != c.want {
			t.Errorf("Recommend(%v,%d)=%s want %s", c.total, c.risk, got, c.want)
		}
	}
}

func TestWeightedTotalClamp(t *testing.T) {
	if got := WeightedTotal(0, 0, 0, 10); got != 0 {
		t.Fatalf("low clamp=%v", got)
	}
	if got := WeightedTotal(100, 100, 100, 1); got != 89 {
		t.Fatalf("total=%v want 89", got)
	}
	if got := WeightedTotal(50, 50, 50, 5); got != 40 {
		t.Fatalf("neutral total=%v want 40", got)
	}
}

func TestScoreStrongSignals(t *testing.T) {
	b := models.NewResearchBundle("bitcoin", "run", time.Now(), map[models.SignalName]models.SignalResult{
		models.SignalPricePattern: models.Ok(models.SignalPricePattern, "", models.PricePattern{
			Trend: models.TrendBullish, ChangePct: 20, DoubleBottom: true, Volatility: 0.01,
		}),
		models.SignalIndicatorsVolume: models.Ok(models.SignalIndicatorsVolume, "", models.IndicatorsVolume{
			Indicators: models.Indicators{MA: 100, RSI: 25},
			Volume:     models.VolumeStats{Average: 10, Last: 12},
			LastPrice:  110,
		}),
		models.SignalSentiment: models.Ok(models.SignalSentiment, "", models.Sentiment{UpPct: 90, DownPct: 10}),
		models.SignalMarketData: models.Ok(models.SignalMarketData, "", models.MarketData{
			Rank: 1, MarketCapUSD: 1000, Volume24hUSD: 150, CirculatingSupply: 19, MaxSupply: 21, ATHChangePct: -5,
		}),
	})
	card := Score(b)
	// technical 50+15+5+5+10+5+5 = 95
	if card.Technical != 95 {
		t.Fatalf("technical=%v want 95", card.Technical)
	}
	// fundamental 50+20+10+10+5 = 95
	if card.Fundamental != 95 {
		t.Fatalf("fundamental=%v want 95", card.Fundamental)
	}
	if card.Sentiment != 90 {
		t.Fatalf("sentiment=%v want 90", card.Sentiment)
	}
	// risk 5-1-1-1 = 2
	if card.Risk != 2 {
		t.Fatalf("risk=%d want 2", card.Risk)
	}
	// 0.35*95+0.30*95+0.25*90-2 = 82.25
	if card.WeightedTotal != 82.25 || card.Recommendation != models.StrongBuy {
		t.Fatalf("total=%v rec=%s", card.WeightedTotal, card.Recommendation)
	}
	if len(card.Degraded) != 1 || card.Degraded[0] != models.SignalInternetSearch {
		t.Fatalf("degraded=%v", card.Degraded)
	}
}

func TestScoreWebTone(t *testing.T) {
	web := models.WebResearch{Queries: []models.QueryResult{
		{Query: "a", Answer: "Bullish rally after ETF approval.", Hits: []models.SearchHit{
			{Title: "SEC lawsuit", Content: "Regulation talk and an investigation, plus a crash."},
		}},
		{Query: "b", Err: "Tavily API error (500)"},
	}}
	tone := analyzeTone(web)
	if tone.positive != 3 || tone.negative != 1 || tone.regulatory != 4 {
		t.Fatalf("tone=%+v", tone)
	}
	b := models.NewResearchBundle("x", "run", time.Now(), map[models.SignalName]models.SignalResult{
		models.SignalInternetSearch: models.Ok(models.SignalInternetSearch, "", web),
	})
	card := Score(b)
	// 50 + 50*(3-1)/4 = 75
	if card.Sentiment != 75 {
		t.Fatalf("sentiment=%v want 75", card.Sentiment)
	}
	if card.Risk != 6 {
		t.Fatalf("risk=%d want 6", card.Risk)
	}
}

const coinBody = `{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1,
"sentiment_votes_up_percentage":80,"sentiment_votes_down_percentage":20,
"market_data":{"current_price":{"usd":112},"market_cap":{"usd":1000},"total_volume":{"usd":50},
"ath_change_percentage":{"usd":-10},"circulating_supply":19,"max_supply":21}}`

func newProviderServer(t *testing.T) (*httptest.Server, map[string]*int32) {
	t.Helper()
	hits := map[string]*int32{"coin": new(int32), "chart30": new(int32), "chart14": new(int32)}
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits["coin"], 1)
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte(coinBody))
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits["chart"+r.URL.Query().Get("days")], 1)
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte(`{"prices":[[1,100],[2,105],[3,103],[4,108],[5,112]],"total_volumes":[[1,10],[2,20],[3,30],[4,20],[5,25]]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hits
}

type recordingPublisher struct {
	cards []*models.ScoreCard
}

func (p *recordingPublisher) PublishScorecard(_ context.Context, c *models.ScoreCard) error {
	p.cards = append(p.cards, c)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

type failingSearch struct{}

func (failingSearch) Search(context.Context, []string) (models.WebResearch, error) {
	return models.WebResearch{}, &models.ConfigError{Key: "TAVILY_API_KEY", Reason: "missing"}
}

type fixedSynth struct{}

func (fixedSynth) Synthesize(_ context.Context, b *models.ResearchBundle, c *models.ScoreCard) (string, error) {
	return fmt.Sprintf("%s %s", b.AssetID, c.Recommendation), nil
}

func TestPipelineSharesFetches(t *testing.T) {
	srv, hits := newProviderServer(t)
	factory := func(store cache.EntryStore) repository.MarketDataProvider {
		return coingecko.New(srv.URL, fetcher.New("coingecko", store))
	}
	pub := &recordingPublisher{}
	p := NewResearchPipeline(PipelineConfig{Timeout: 5 * time.Second, PatternDays: 30, IndicatorDays: 14},
		factory, failingSearch{}, fixedSynth{}, pub, nil, nil, nil)

	res, err := p.Run(context.Background(), RunRequest{CoinID: " Bitcoin "})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for k, v := range hits {
		if n := atomic.LoadInt32(v); n != 1 {
			t.Errorf("%s fetched %d times, want 1", k, n)
		}
	}
	if res.Bundle.Len() != 5 {
		t.Fatalf("bundle keys=%d", res.Bundle.Len())
	}
	if r, _ := res.Bundle.Get(models.SignalInternetSearch); r.OK() || r.Err.Kind != models.KindConfig {
		t.Fatalf("internet_search=%+v", r)
	}
	for _, n := range []models.SignalName{models.SignalPricePattern, models.SignalIndicatorsVolume, models.SignalSentiment, models.SignalMarketData} {
		if r, _ := res.Bundle.Get(n); !r.OK() {
			t.Fatalf("%s unavailable: %s", n, r.Text())
		}
	}
	if res.Report != "bitcoin "+string(res.Card.Recommendation) {
		t.Fatalf("report=%q", res.Report)
	}
	if len(pub.cards) != 1 || pub.cards[0].RunID != res.RunID {
		t.Fatalf("publisher got %d cards", len(pub.cards))
	}
}

func TestPipelineRejectsEmptyCoin(t *testing.T) {
	p := NewResearchPipeline(PipelineConfig{}, nil, nil, nil, nil, nil, nil, nil)
	if _, err := p.Run(context.Background(), RunRequest{CoinID: "  "}); err == nil {
		t.Fatalf("expected error for empty coin id")
	}
}
