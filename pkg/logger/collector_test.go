package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorAggregatesRepeatedErrors(t *testing.T) {
	pub := &capturePublisher{}
	l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("upstream failed", String("host", "api.coingecko.com"))
	}
	l.Error("other failure")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topic != "logs" {
		t.Fatalf("topic=%q", pub.topic)
	}
	if len(pub.batches) != 1 {
		t.Fatalf("batches=%d want 1", len(pub.batches))
	}
	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
	}
	if counts["upstream failed"] != 3 || counts["other failure"] != 1 {
		t.Fatalf("counts=%v", counts)
	}
}

func TestNamedLoggerKeepsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	l.Named("fetcher").Error("boom")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || pub.batches[0][0].Fields["component"] != "fetcher" {
		t.Fatalf("unexpected batches: %+v", pub.batches)
	}
}

func TestWarnCollectedOnlyWhenEnabled(t *testing.T) {
	for _, include := range []bool{false, true} {
		pub := &capturePublisher{}
		l := NewNop()
		l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, IncludeWarn: include, Topic: "logs", Publisher: pub})
		l.Warn("pipeline.publish_failed", Error(errors.New("broker down")), Int("attempt", 2))
		l.RemoveCollector()

		pub.mu.Lock()
		got := len(pub.batches)
		var fields map[string]interface{}
		if got > 0 {
			fields = pub.batches[0][0].Fields
		}
		pub.mu.Unlock()

		if !include && got != 0 {
			t.Fatalf("warn collected while disabled")
		}
		if include && (got != 1 || fields["error"] != "broker down" || fields["attempt"] != 2) {
			t.Fatalf("include=%v batches=%d fields=%v", include, got, fields)
		}
	}
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]interface{}{"a": 1, "b": "x"}, "c.go:1")
	b := entryKey("error", "m", map[string]interface{}{"b": "x", "a": 1}, "c.go:1")
	if a != b {
		t.Fatalf("keys differ")
	}
	if a == entryKey("warn", "m", map[string]interface{}{"a": 1, "b": "x"}, "c.go:1") {
		t.Fatalf("level not part of key")
	}
}
