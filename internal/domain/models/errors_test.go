package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{&ProviderError{Provider: "coingecko", Status: 404}, KindProvider},
		{fmt.Errorf("chart: %w", &ProviderError{Provider: "coingecko", Err: netTimeout{}}), KindTimeout},
		{context.DeadlineExceeded, KindTimeout},
		{&TimeoutError{Op: "search", Err: errors.New("slow")}, KindTimeout},
		{context.Canceled, KindCancelled},
		{&ConfigError{Key: "TAVILY_API_KEY", Reason: "missing"}, KindConfig},
		{&DecodingError{What: "market chart"}, KindDecoding},
		{fmt.Errorf("prices: %w", ErrInsufficientData), KindInsufficientData},
		{errors.New("anything else"), KindProvider},
	}
	for _, c := range cases {
		if got := ClassifyError(c.err); got != c.want {
			t.Errorf("ClassifyError(%v)=%s want %s", c.err, got, c.want)
		}
	}
}

func TestUnavailableKeepsKind(t *testing.T) {
	r := Unavailable(SignalSentiment, &ConfigError{Key: "x", Reason: "missing"})
	if r.OK() || r.Err.Kind != KindConfig {
		t.Fatalf("result=%+v", r)
	}
}
