package report

import (
	"context"
	"fmt"
	"strings"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/service"

	"github.com/shopspring/decimal"
)

// Markdown renders a deterministic report without any model call.
type Markdown struct{}

var _ service.ReportSynthesizer = Markdown{}

func (Markdown) Synthesize(_ context.Context, b *models.ResearchBundle, c *models.ScoreCard) (string, error) {
	return Render(b, c), nil
}

var sectionTitles = map[models.SignalName]string{
	models.SignalMarketData:       "Market Data",
	models.SignalPricePattern:     "Price Patterns",
	models.SignalIndicatorsVolume: "Indicators & Volume",
	models.SignalSentiment:        "Community Sentiment",
	models.SignalInternetSearch:   "Internet Research",
}

// Render builds the markdown report for a scored bundle.
func Render(b *models.ResearchBundle, c *models.ScoreCard) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s Research Report\n\n", displayName(b))
	fmt.Fprintf(&sb, "_Run %s, generated %s_\n\n", c.RunID, c.ScoredAt.UTC().Format("2006-01-02 15:04 MST"))

	sb.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&sb, "%s **%s** with a weighted score of **%s/100** and risk **%d/10**.\n",
		Indicator(c.Recommendation), RecommendationLabel(c.Recommendation), fixed(c.WeightedTotal, 2), c.Risk)
	if len(c.Degraded) > 0 {
		names := make([]string, len(c.Degraded))
		for i, n := range c.Degraded {
			names[i] = string(n)
		}
		fmt.Fprintf(&sb, "\nSome signals were unavailable and scored neutral: %s.\n", strings.Join(names, ", "))
	}
	sb.WriteString("\n")

	sb.WriteString("## Quantitative Scorecard\n\n")
	sb.WriteString(ScorecardTable(c))
	sb.WriteString("\n")

	for _, name := range []models.SignalName{
		models.SignalMarketData,
		models.SignalPricePattern,
		models.SignalIndicatorsVolume,
		models.SignalSentiment,
		models.SignalInternetSearch,
	} {
		r, _ := b.Get(name)
		fmt.Fprintf(&sb, "## %s\n\n", sectionTitles[name])
		if name == models.SignalInternetSearch && r.OK() {
			sb.WriteString(r.Text())
		} else {
			sb.WriteString("```\n" + r.Text() + "\n```")
		}
		sb.WriteString("\n\n")
	}

	if len(c.Factors) > 0 {
		sb.WriteString("## Scoring Factors\n\n")
		for _, f := range c.Factors {
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", f.Category, f.Factor, signed(f.Delta))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Recommendation\n\n")
	fmt.Fprintf(&sb, "%s %s\n\n", Indicator(c.Recommendation), RecommendationLabel(c.Recommendation))
	sb.WriteString("_This report is generated from public market data and is not financial advice._\n")
	return sb.String()
}

// ScorecardTable renders the weighted contribution table.
func ScorecardTable(c *models.ScoreCard) string {
	var sb strings.Builder
	sb.WriteString("| Metric | Score | Weight | Contribution |\n")
	sb.WriteString("|--------|-------|--------|--------------|\n")
	fmt.Fprintf(&sb, "| Technical | %s/100 | 35%% | %s |\n", fixed(c.Technical, 1), fixed(c.Technical*0.35, 1))
	fmt.Fprintf(&sb, "| Fundamental | %s/100 | 30%% | %s |\n", fixed(c.Fundamental, 1), fixed(c.Fundamental*0.30, 1))
	fmt.Fprintf(&sb, "| Sentiment | %s/100 | 25%% | %s |\n", fixed(c.Sentiment, 1), fixed(c.Sentiment*0.25, 1))
	fmt.Fprintf(&sb, "| Risk Adjustment | %d/10 | 10%% | -%s |\n", c.Risk, fixed(float64(c.Risk), 1))
	fmt.Fprintf(&sb, "| **Final Score** | **%s/100** | **100%%** | **%s** |\n", fixed(c.WeightedTotal, 1), fixed(c.WeightedTotal, 1))
	return sb.String()
}

// Indicator maps a recommendation to a traffic-light marker.
func Indicator(r models.Recommendation) string {
	switch r {
	case models.StrongBuy, models.Buy:
		return "🟢"
	case models.Sell:
		return "🔴"
	default:
		return "🟡"
	}
}

func RecommendationLabel(r models.Recommendation) string {
	switch r {
	case models.StrongBuy:
		return "Strong Buy"
	case models.Buy:
		return "Buy"
	case models.Sell:
		return "Sell"
	default:
		return "Hold"
	}
}

func displayName(b *models.ResearchBundle) string {
	if m, ok := models.Record[models.MarketData](b, models.SignalMarketData); ok && m.Name != "" {
		return fmt.Sprintf("%s (%s)", m.Name, m.Symbol)
	}
	return b.AssetID
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func signed(v float64) string {
	if v > 0 {
		return "+" + fixed(v, 2)
	}
	return fixed(v, 2)
}
