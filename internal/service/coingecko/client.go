package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/fetcher"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client maps CoinGecko endpoints onto the cached fetcher. Identical URLs are
// shared between tasks, so /coins/{id} is fetched once for sentiment and market data.
type Client struct {
	baseURL string
	f       *fetcher.Fetcher
}

var _ repository.MarketDataProvider = (*Client)(nil)

func New(baseURL string, f *fetcher.Fetcher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), f: f}
}

func (c *Client) MarketChartURL(coinID string, days int) string {
	return fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", c.baseURL, url.PathEscape(coinID), days)
}

func (c *Client) CoinURL(coinID string) string {
	return fmt.Sprintf("%s/coins/%s", c.baseURL, url.PathEscape(coinID))
}

type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func (c *Client) MarketChart(ctx context.Context, coinID string, days int) (models.MarketChart, error) {
	u := c.MarketChartURL(coinID, days)
	resp, err := fetcher.FetchJSON[marketChartResponse](ctx, c.f, u)
	if err != nil {
		return models.MarketChart{}, err
	}
	if resp.Prices == nil && resp.TotalVolumes == nil {
		return models.MarketChart{}, &models.DecodingError{What: "market_chart", Err: fmt.Errorf("no prices or total_volumes in %s", u)}
	}

	out := models.MarketChart{
		Prices:       make(models.PriceSeries, 0, len(resp.Prices)),
		MarketCaps:   make(models.PriceSeries, 0, len(resp.MarketCaps)),
		TotalVolumes: make(models.VolumeSeries, 0, len(resp.TotalVolumes)),
	}
	for _, p := range resp.Prices {
		out.Prices = append(out.Prices, models.PricePoint{Timestamp: int64(p[0]), Value: p[1]})
	}
	for _, p := range resp.MarketCaps {
		out.MarketCaps = append(out.MarketCaps, models.PricePoint{Timestamp: int64(p[0]), Value: p[1]})
	}
	for _, p := range resp.TotalVolumes {
		out.TotalVolumes = append(out.TotalVolumes, models.VolumePoint{Timestamp: int64(p[0]), Value: p[1]})
	}
	return out, nil
}

type usdValue struct {
	USD *float64 `json:"usd"`
}

type usdString struct {
	USD string `json:"usd"`
}

type coinResponse struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	MarketCapRank                *int     `json:"market_cap_rank"`
	SentimentVotesUpPercentage   *float64 `json:"sentiment_votes_up_percentage"`
	SentimentVotesDownPercentage *float64 `json:"sentiment_votes_down_percentage"`
	MarketData                   *struct {
		CurrentPrice             usdValue  `json:"current_price"`
		MarketCap                usdValue  `json:"market_cap"`
		TotalVolume              usdValue  `json:"total_volume"`
		ATH                      usdValue  `json:"ath"`
		ATHChangePercentage      usdValue  `json:"ath_change_percentage"`
		ATHDate                  usdString `json:"ath_date"`
		ATL                      usdValue  `json:"atl"`
		ATLChangePercentage      usdValue  `json:"atl_change_percentage"`
		ATLDate                  usdString `json:"atl_date"`
		PriceChangePercentage24h *float64  `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  *float64  `json:"price_change_percentage_7d"`
		PriceChangePercentage30d *float64  `json:"price_change_percentage_30d"`
		CirculatingSupply        *float64  `json:"circulating_supply"`
		TotalSupply              *float64  `json:"total_supply"`
		MaxSupply                *float64  `json:"max_supply"`
	} `json:"market_data"`
}

func (c *Client) Coin(ctx context.Context, coinID string) (models.CoinDetail, error) {
	raw, err := c.f.Fetch(ctx, c.CoinURL(coinID))
	if err != nil {
		return models.CoinDetail{}, err
	}
	var resp coinResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.CoinDetail{}, &models.DecodingError{What: "coin " + coinID, Err: err}
	}

	out := models.CoinDetail{
		ID:           resp.ID,
		Symbol:       resp.Symbol,
		Name:         resp.Name,
		VotesUpPct:   resp.SentimentVotesUpPercentage,
		VotesDownPct: resp.SentimentVotesDownPercentage,
	}
	if resp.MarketCapRank != nil {
		out.MarketCapRank = *resp.MarketCapRank
	}
	if md := resp.MarketData; md != nil {
		out.Market = models.CoinMarket{
			PriceUSD:          md.CurrentPrice.USD,
			MarketCapUSD:      md.MarketCap.USD,
			Volume24hUSD:      md.TotalVolume.USD,
			Change24hPct:      md.PriceChangePercentage24h,
			Change7dPct:       md.PriceChangePercentage7d,
			Change30dPct:      md.PriceChangePercentage30d,
			ATHUSD:            md.ATH.USD,
			ATHChangePct:      md.ATHChangePercentage.USD,
			ATHDate:           md.ATHDate.USD,
			ATLUSD:            md.ATL.USD,
			ATLChangePct:      md.ATLChangePercentage.USD,
			ATLDate:           md.ATLDate.USD,
			CirculatingSupply: md.CirculatingSupply,
			TotalSupply:       md.TotalSupply,
			MaxSupply:         md.MaxSupply,
		}
	}
	return out, nil
}
