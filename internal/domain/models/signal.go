package models

import "time"

// PricePoint is one [timestamp_ms, value] pair of a market chart series.
type PricePoint struct {
	Timestamp int64
	Value     float64
}

type PriceSeries []PricePoint

// Values returns the series values in timestamp order.
func (s PriceSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

type VolumePoint struct {
	Timestamp int64
	Value     float64
}

type VolumeSeries []VolumePoint

func (s VolumeSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// MarketChart is the decoded /coins/{id}/market_chart payload.
type MarketChart struct {
	Prices       PriceSeries
	TotalVolumes VolumeSeries
	MarketCaps   PriceSeries
}

// CoinDetail is the subset of /coins/{id} used by the sentiment and market data signals.
type CoinDetail struct {
	ID            string
	Symbol        string
	Name          string
	MarketCapRank int
	VotesUpPct    *float64
	VotesDownPct  *float64
	Market        CoinMarket
}

// CoinMarket holds USD market figures of a coin. Nil pointers mean the provider sent null.
type CoinMarket struct {
	PriceUSD          *float64
	MarketCapUSD      *float64
	Volume24hUSD      *float64
	Change24hPct      *float64
	Change7dPct       *float64
	Change30dPct      *float64
	ATHUSD            *float64
	ATHChangePct      *float64
	ATHDate           string
	ATLUSD            *float64
	ATLChangePct      *float64
	ATLDate           string
	CirculatingSupply *float64
	TotalSupply       *float64
	MaxSupply         *float64
}

// CacheEntry is a successful upstream response remembered for one run.
type CacheEntry struct {
	Key       string
	Value     []byte
	FetchedAt time.Time
}
