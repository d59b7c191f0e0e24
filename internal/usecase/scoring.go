package usecase

import (
	"strings"
	"time"
	"unicode"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/services/features"
)

// Score weights. Risk is subtracted after scaling to 0-100.
const (
	WeightTechnical   = 0.35
	WeightFundamental = 0.30
	WeightSentiment   = 0.25
	WeightRisk        = 0.10

	neutralScore = 50.0
	neutralRisk  = 5
)

var (
	positiveWords = wordSet("bullish", "rally", "surge", "surges", "gain", "gains", "growth", "adoption",
		"breakout", "record", "upgrade", "partnership", "soar", "soars", "optimistic", "inflows", "approval", "approved")
	negativeWords = wordSet("bearish", "crash", "dump", "decline", "declines", "loss", "losses", "hack", "hacked",
		"exploit", "scam", "fraud", "selloff", "sell-off", "plunge", "plunges", "outflows", "fear", "liquidation", "liquidations")
	regulatoryWords = wordSet("sec", "lawsuit", "regulation", "regulatory", "ban", "banned", "investigation",
		"sanction", "sanctions", "enforcement", "subpoena", "crackdown", "cftc")
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// scorer accumulates factor deltas for one category.
type scorer struct {
	category string
	value    float64
	factors  *[]models.FactorScore
}

func (s *scorer) add(factor string, delta float64) {
	if delta == 0 {
		return
	}
	s.value += delta
	*s.factors = append(*s.factors, models.FactorScore{Category: s.category, Factor: factor, Delta: features.Round2(delta)})
}

// Score turns a bundle into a scorecard. It never fails: unavailable signals
// leave their sub-score neutral and are listed in Degraded.
func Score(b *models.ResearchBundle) *models.ScoreCard {
	var factors []models.FactorScore

	pattern, hasPattern := models.Record[models.PricePattern](b, models.SignalPricePattern)
	iv, hasIV := models.Record[models.IndicatorsVolume](b, models.SignalIndicatorsVolume)
	votes, hasVotes := models.Record[models.Sentiment](b, models.SignalSentiment)
	web, hasWeb := models.Record[models.WebResearch](b, models.SignalInternetSearch)
	market, hasMarket := models.Record[models.MarketData](b, models.SignalMarketData)

	tech := &scorer{category: "technical", value: neutralScore, factors: &factors}
	if hasPattern {
		switch pattern.Trend {
		case models.TrendBullish:
			tech.add("trend bullish", 15)
		case models.TrendBearish:
			tech.add("trend bearish", -15)
		}
		tech.add("price change", features.Clamp(pattern.ChangePct, -10, 10)*0.5)
		if pattern.DoubleBottom {
			tech.add("double bottom", 5)
		}
		if pattern.DoubleTop {
			tech.add("double top", -5)
		}
	}
	if hasIV {
		rsi := iv.Indicators.RSI
		switch {
		case rsi < 30:
			tech.add("rsi oversold", 10)
		case rsi > 70:
			tech.add("rsi overbought", -10)
		case rsi >= 45 && rsi <= 55:
		default:
			tech.add("rsi momentum", (rsi-50)*0.25)
		}
		switch {
		case iv.LastPrice > iv.Indicators.MA:
			tech.add("price above ma", 5)
		case iv.LastPrice < iv.Indicators.MA:
			tech.add("price below ma", -5)
		}
		if hasPattern && iv.Volume.Last >= iv.Volume.Average {
			switch pattern.Trend {
			case models.TrendBullish:
				tech.add("volume confirms uptrend", 5)
			case models.TrendBearish:
				tech.add("volume confirms downtrend", -5)
			}
		}
	}

	fund := &scorer{category: "fundamental", value: neutralScore, factors: &factors}
	if hasMarket {
		switch r := market.Rank; {
		case r <= 0:
		case r <= 10:
			fund.add("top 10 rank", 20)
		case r <= 50:
			fund.add("top 50 rank", 10)
		case r > 200:
			fund.add("rank beyond 200", -10)
		}
		if ratio, ok := market.SupplyRatio(); ok {
			switch {
			case ratio >= 0.8:
				fund.add("supply mostly circulating", 10)
			case ratio >= 0.5:
				fund.add("supply half circulating", 5)
			case ratio < 0.3:
				fund.add("low circulating supply", -10)
			}
		}
		if market.MarketCapUSD > 0 {
			switch v := market.VolumeToMarketCap(); {
			case v >= 0.10:
				fund.add("high liquidity", 10)
			case v >= 0.03:
				fund.add("healthy liquidity", 5)
			case v < 0.01:
				fund.add("thin liquidity", -10)
			}
		}
		switch {
		case market.ATHChangePct > -20:
			fund.add("near all-time high", 5)
		case market.ATHChangePct < -80:
			fund.add("far below all-time high", -10)
		}
	}

	var tone webTone
	if hasWeb {
		tone = analyzeTone(web)
	}

	sent := neutralScore
	switch {
	case hasVotes && hasWeb:
		sent = 0.7*votes.UpPct + 0.3*tone.score()
	case hasVotes:
		sent = votes.UpPct
	case hasWeb:
		sent = tone.score()
	}
	if sent != neutralScore {
		factors = append(factors, models.FactorScore{Category: "sentiment", Factor: "votes and news tone", Delta: features.Round2(sent - neutralScore)})
	}

	risk := &scorer{category: "risk", value: neutralRisk, factors: &factors}
	if hasPattern {
		switch v := pattern.Volatility; {
		case v > 0.10:
			risk.add("high volatility", 2)
		case v > 0.05:
			risk.add("elevated volatility", 1)
		case v < 0.02:
			risk.add("low volatility", -1)
		}
		if pattern.Trend == models.TrendBearish {
			risk.add("downtrend", 1)
		}
	}
	if hasMarket {
		if market.MarketCapUSD > 0 {
			switch v := market.VolumeToMarketCap(); {
			case v < 0.01:
				risk.add("illiquid", 1)
			case v >= 0.05:
				risk.add("liquid", -1)
			}
		}
		switch r := market.Rank; {
		case r > 100:
			risk.add("small cap", 1)
		case r > 0 && r <= 10:
			risk.add("large cap", -1)
		}
	}
	if hasWeb && tone.regulatory >= 3 {
		risk.add("regulatory news", 1)
	}

	card := &models.ScoreCard{
		AssetID:     b.AssetID,
		RunID:       b.RunID,
		Technical:   features.Round2(features.Clamp(tech.value, 0, 100)),
		Fundamental: features.Round2(features.Clamp(fund.value, 0, 100)),
		Sentiment:   features.Round2(features.Clamp(sent, 0, 100)),
		Risk:        int(features.Clamp(risk.value, 1, 10)),
		Factors:     factors,
		Degraded:    b.Degraded(),
		ScoredAt:    time.Now(),
	}
	card.WeightedTotal = WeightedTotal(card.Technical, card.Fundamental, card.Sentiment, card.Risk)
	card.Recommendation = Recommend(card.WeightedTotal, card.Risk)
	return card
}

// WeightedTotal combines sub-scores, clamped to [0,100] and rounded to 2 decimals.
func WeightedTotal(technical, fundamental, sentiment float64, risk int) float64 {
	total := WeightTechnical*technical +
		WeightFundamental*fundamental +
		WeightSentiment*sentiment -
		WeightRisk*float64(risk*10)
	return features.Round2(features.Clamp(total, 0, 100))
}

// Recommend applies the thresholds in order; the first match wins.
func Recommend(total float64, risk int) models.Recommendation {
	switch {
	case total > 70 && risk < 6:
		return models.StrongBuy
	case total >= 55 && total <= 70 && risk < 7:
		return models.Buy
	case total >= 40 && total < 55:
		return models.Hold
	case total < 40 || risk > 7:
		return models.Sell
	}
	return models.Hold
}

type webTone struct {
	positive   int
	negative   int
	regulatory int
}

func (t webTone) score() float64 {
	if t.positive+t.negative == 0 {
		return neutralScore
	}
	return neutralScore + neutralScore*float64(t.positive-t.negative)/float64(t.positive+t.negative)
}

// analyzeTone counts lexicon hits in answers and result titles/contents of
// successful queries.
func analyzeTone(w models.WebResearch) webTone {
	var t webTone
	count := func(text string) {
		for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && r != '-'
		}) {
			if _, ok := positiveWords[word]; ok {
				t.positive++
			}
			if _, ok := negativeWords[word]; ok {
				t.negative++
			}
			if _, ok := regulatoryWords[word]; ok {
				t.regulatory++
			}
		}
	}
	for _, q := range w.Queries {
		if q.Err != "" {
			continue
		}
		count(q.Answer)
		for _, h := range q.Hits {
			count(h.Title)
			count(h.Content)
		}
	}
	return t
}
