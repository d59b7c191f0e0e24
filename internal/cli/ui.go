package cli

import (
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/service/report"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginBottom(1)

	scorecardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(60)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(14)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)
)

func renderTitle(coinID string) string {
	return titleStyle.Render("CoinPulse research: " + coinID)
}

// renderSignal prints one settled task as a progress line.
func renderSignal(r models.SignalResult) string {
	elapsed := r.Elapsed.Round(10 * time.Millisecond)
	if r.OK() {
		return fmt.Sprintf("%s %-18s %s", completedStyle.Render("✓"), r.Name, elapsed)
	}
	return fmt.Sprintf("%s %-18s %s  %s", errorStyle.Render("✗"), r.Name, elapsed,
		errorStyle.Render(fmt.Sprintf("%s: %s", r.Err.Kind, r.Err.Reason)))
}

func recommendationStyle(rec models.Recommendation) lipgloss.Style {
	switch rec {
	case models.StrongBuy, models.Buy:
		return completedStyle
	case models.Sell:
		return errorStyle
	default:
		return neutralStyle
	}
}

func renderScorecard(c *models.ScoreCard) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}
	lines := []string{
		row("Technical", fmt.Sprintf("%.1f/100", c.Technical)),
		row("Fundamental", fmt.Sprintf("%.1f/100", c.Fundamental)),
		row("Sentiment", fmt.Sprintf("%.1f/100", c.Sentiment)),
		row("Risk", fmt.Sprintf("%d/10", c.Risk)),
		row("Weighted", fmt.Sprintf("%.2f/100", c.WeightedTotal)),
		"",
		row("Verdict", recommendationStyle(c.Recommendation).Render(
			report.Indicator(c.Recommendation)+" "+report.RecommendationLabel(c.Recommendation))),
	}
	if len(c.Degraded) > 0 {
		names := make([]string, len(c.Degraded))
		for i, n := range c.Degraded {
			names[i] = string(n)
		}
		lines = append(lines, row("Degraded", errorStyle.Render(strings.Join(names, ", "))))
	}
	return scorecardStyle.Render(strings.Join(lines, "\n"))
}
