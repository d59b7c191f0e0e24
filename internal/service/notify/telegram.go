package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a short scorecard summary to one chat.
type Telegram struct {
	bot        sender
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

var _ repository.Notifier = (*Telegram)(nil)

func NewTelegram(botToken, chatID string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegram(bot, chatID)
}

func newTelegram(bot sender, chatID string) (*Telegram, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	return &Telegram{bot: bot, chatID: id, maxRetries: 3, retryDelay: time.Second}, nil
}

// Notify sends the summary with linear-backoff retry. The report body is not sent.
func (t *Telegram) Notify(ctx context.Context, card *models.ScoreCard, _ string) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatScorecard(card))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", t.maxRetries, lastErr)
}

// FormatScorecard renders a MarkdownV2 message for a scorecard.
func FormatScorecard(c *models.ScoreCard) string {
	emoji := "🟡"
	switch c.Recommendation {
	case models.StrongBuy, models.Buy:
		emoji = "🟢"
	case models.Sell:
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*: %s\n", emoji, escapeMarkdownV2(strings.ToUpper(c.AssetID)), escapeMarkdownV2(string(c.Recommendation)))
	fmt.Fprintf(&b, "Score %s/100, risk %d/10\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", c.WeightedTotal)), c.Risk)
	fmt.Fprintf(&b, "T %s · F %s · S %s",
		escapeMarkdownV2(fmt.Sprintf("%.1f", c.Technical)),
		escapeMarkdownV2(fmt.Sprintf("%.1f", c.Fundamental)),
		escapeMarkdownV2(fmt.Sprintf("%.1f", c.Sentiment)))
	if len(c.Degraded) > 0 {
		names := make([]string, len(c.Degraded))
		for i, n := range c.Degraded {
			names[i] = string(n)
		}
		fmt.Fprintf(&b, "\n⚠️ degraded: %s", escapeMarkdownV2(strings.Join(names, ", ")))
	}
	return b.String()
}

func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
