package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type flakySender struct {
	fails int
	sent  []tgbotapi.MessageConfig
}

func (s *flakySender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.fails > 0 {
		s.fails--
		return tgbotapi.Message{}, errors.New("telegram down")
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func card() *models.ScoreCard {
	return &models.ScoreCard{
		AssetID: "bitcoin", WeightedTotal: 61.25, Risk: 4,
		Technical: 60, Fundamental: 80, Sentiment: 55.5,
		Recommendation: models.StrongBuy,
		Degraded:       []models.SignalName{models.SignalInternetSearch},
	}
}

func TestNotifyRetries(t *testing.T) {
	s := &flakySender{fails: 1}
	tg, err := newTelegram(s, "-100123")
	if err != nil {
		t.Fatalf("newTelegram: %v", err)
	}
	tg.retryDelay = time.Millisecond

	if err := tg.Notify(context.Background(), card(), ""); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].ChatID != -100123 || s.sent[0].ParseMode != "MarkdownV2" {
		t.Fatalf("sent=%+v", s.sent)
	}
}

func TestNotifyGivesUp(t *testing.T) {
	tg, _ := newTelegram(&flakySender{fails: 10}, "1")
	tg.retryDelay = time.Millisecond
	if err := tg.Notify(context.Background(), card(), ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInvalidChatID(t *testing.T) {
	if _, err := newTelegram(&flakySender{}, "not-a-number"); err == nil {
		t.Fatalf("expected chat id error")
	}
}

func TestFormatScorecardEscapes(t *testing.T) {
	got := FormatScorecard(card())
	for _, want := range []string{
		"🟢 *BITCOIN*: STRONG\\_BUY",
		"Score 61\\.25/100, risk 4/10",
		"T 60\\.0 · F 80\\.0 · S 55\\.5",
		"degraded: internet\\_search",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("message missing %q:\n%s", want, got)
		}
	}
}
