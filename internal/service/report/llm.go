package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/service"
	"CoinPulse/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = `You are a senior crypto investment analyst. You turn research gathered by automated collectors into an institutional-grade markdown report.

The research arrives in XML sections: <market_data>, <price_patterns>, <indicators_volume>, <sentiment_analysis> and <internet_research>. A section that starts with "Unavailable" could not be collected; say so instead of guessing.

The quantitative scorecard has already been computed and is given in <scorecard>. Reproduce its numbers and its recommendation exactly; do not recompute them.

Structure the report with these headers: Executive Summary, Quantitative Scorecard, Technical Analysis, Fundamental Assessment, Sentiment & Catalysts, Risk-Reward Assessment, Investment Recommendation.
Cite concrete figures from the sections. Use 🟢 for bullish, 🟡 for neutral and 🔴 for bearish signals. Keep it between 800 and 1500 words.`

// LLMConfig configures the OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LLM asks a chat model to write the report and falls back to the markdown
// renderer when the call fails.
type LLM struct {
	chat     model.BaseChatModel
	fallback service.ReportSynthesizer
	timeout  time.Duration
	log      *logger.Logger
}

var _ service.ReportSynthesizer = (*LLM)(nil)

// NewLLM builds the eino openai chat model. A missing key is a ConfigError.
func NewLLM(ctx context.Context, cfg LLMConfig, log *logger.Logger) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigError{Key: "LLM_API_KEY", Reason: "required when report.mode is llm"}
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return NewLLMWithModel(chat, cfg.Timeout, log), nil
}

// NewLLMWithModel wraps an existing chat model.
func NewLLMWithModel(chat model.BaseChatModel, timeout time.Duration, log *logger.Logger) *LLM {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &LLM{chat: chat, fallback: Markdown{}, timeout: timeout, log: log.Named("report")}
}

func (s *LLM) Synthesize(ctx context.Context, b *models.ResearchBundle, c *models.ScoreCard) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(Prompt(b, c)),
	})
	if err == nil && msg != nil && strings.TrimSpace(msg.Content) != "" {
		return msg.Content, nil
	}
	if err == nil {
		err = fmt.Errorf("empty completion")
	}
	s.log.Warn("report.llm_fallback",
		logger.String("run_id", c.RunID),
		logger.String("kind", string(models.ClassifyError(err))),
		logger.Error(err),
	)
	return s.fallback.Synthesize(ctx, b, c)
}

// Prompt wraps each signal in its XML section followed by the scorecard.
func Prompt(b *models.ResearchBundle, c *models.ScoreCard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Provide analysis for %s.\n\n", b.AssetID)
	for _, s := range []struct {
		tag  string
		name models.SignalName
	}{
		{"market_data", models.SignalMarketData},
		{"price_patterns", models.SignalPricePattern},
		{"indicators_volume", models.SignalIndicatorsVolume},
		{"sentiment_analysis", models.SignalSentiment},
		{"internet_research", models.SignalInternetSearch},
	} {
		r, _ := b.Get(s.name)
		fmt.Fprintf(&sb, "<%s>\n%s\n</%s>\n\n", s.tag, r.Text(), s.tag)
	}
	fmt.Fprintf(&sb, "<scorecard>\n%sRecommendation: %s\n</scorecard>\n", ScorecardTable(c), RecommendationLabel(c.Recommendation))
	return sb.String()
}
