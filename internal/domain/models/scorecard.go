package models

import "time"

// Recommendation is the discrete outcome of scoring.
type Recommendation string

const (
	StrongBuy Recommendation = "STRONG_BUY"
	Buy       Recommendation = "BUY"
	Hold      Recommendation = "HOLD"
	Sell      Recommendation = "SELL"
)

// FactorScore records one rule that moved a sub-score.
type FactorScore struct {
	Category string  `json:"category"`
	Factor   string  `json:"factor"`
	Delta    float64 `json:"delta"`
}

type ScoreCard struct {
	AssetID        string         `json:"asset_id"`
	RunID          string         `json:"run_id"`
	Technical      float64        `json:"technical"`
	Fundamental    float64        `json:"fundamental"`
	Sentiment      float64        `json:"sentiment"`
	Risk           int            `json:"risk"`
	WeightedTotal  float64        `json:"weighted_total"`
	Recommendation Recommendation `json:"recommendation"`
	Factors        []FactorScore  `json:"factors,omitempty"`
	Degraded       []SignalName   `json:"degraded,omitempty"`
	ScoredAt       time.Time      `json:"scored_at"`
}
