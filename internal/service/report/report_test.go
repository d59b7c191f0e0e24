package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

func sampleRun() (*models.ResearchBundle, *models.ScoreCard) {
	b := models.NewResearchBundle("bitcoin", "run-1", time.Now(), map[models.SignalName]models.SignalResult{
		models.SignalMarketData: models.Ok(models.SignalMarketData, "Bitcoin (BTC), rank #1", models.MarketData{Name: "Bitcoin", Symbol: "BTC"}),
		models.SignalSentiment:  models.Ok(models.SignalSentiment, "Up votes: 80.00%, Down votes: 20.00%", models.Sentiment{UpPct: 80, DownPct: 20}),
	})
	c := &models.ScoreCard{
		AssetID: "bitcoin", RunID: "run-1",
		Technical: 60, Fundamental: 80, Sentiment: 80, Risk: 4,
		WeightedTotal: 61, Recommendation: models.Buy,
		Degraded: b.Degraded(),
		Factors:  []models.FactorScore{{Category: "fundamental", Factor: "top 10 rank", Delta: 20}},
		ScoredAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
	return b, c
}

func TestRenderMarkdown(t *testing.T) {
	b, c := sampleRun()
	out := Render(b, c)

	for _, want := range []string{
		"# Bitcoin (BTC) Research Report",
		"🟢 **Buy** with a weighted score of **61.00/100** and risk **4/10**.",
		"| Technical | 60.0/100 | 35% | 21.0 |",
		"| Risk Adjustment | 4/10 | 10% | -4.0 |",
		"Unavailable (",
		"- fundamental: top 10 rank (+20.00)",
		"price_pattern, indicators_volume, internet_search",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q\n%s", want, out)
		}
	}
}

type stubChat struct {
	reply string
	err   error
	input []*schema.Message
}

func (s *stubChat) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChat) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestLLMUsesModelOutput(t *testing.T) {
	b, c := sampleRun()
	chat := &stubChat{reply: "# Model report"}
	got, err := NewLLMWithModel(chat, time.Second, nil).Synthesize(context.Background(), b, c)
	if err != nil || got != "# Model report" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if len(chat.input) != 2 || chat.input[0].Role != schema.System {
		t.Fatalf("unexpected messages: %+v", chat.input)
	}
	prompt := chat.input[1].Content
	if !strings.Contains(prompt, "<sentiment_analysis>\nUp votes: 80.00%, Down votes: 20.00%\n</sentiment_analysis>") {
		t.Fatalf("prompt missing sentiment section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Recommendation: Buy") {
		t.Fatalf("prompt missing scorecard")
	}
}

func TestLLMFallsBackToMarkdown(t *testing.T) {
	b, c := sampleRun()
	got, err := NewLLMWithModel(&stubChat{err: errors.New("503")}, time.Second, nil).Synthesize(context.Background(), b, c)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != Render(b, c) {
		t.Fatalf("fallback did not render markdown")
	}
}

func TestNewLLMRequiresKey(t *testing.T) {
	_, err := NewLLM(context.Background(), LLMConfig{Model: "x"}, nil)
	if models.ClassifyError(err) != models.KindConfig {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "response.md")
	if err := WriteMarkdown(path, "# Résumé ✓"); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "# Résumé ✓" {
		t.Fatalf("read back %q err=%v", b, err)
	}
	if err := WriteMarkdown("", "x"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
