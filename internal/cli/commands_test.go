package cli

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
)

func TestVersionCmd(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "CoinPulse "+version) {
		t.Fatalf("out=%q", out.String())
	}
}

func TestAnalyzeRequiresCoin(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected args error")
	}
}

func TestRenderSignal(t *testing.T) {
	ok := renderSignal(models.SignalResult{Name: models.SignalSentiment, Summary: "x", Elapsed: 120 * time.Millisecond})
	if !strings.Contains(ok, "✓") || !strings.Contains(ok, "sentiment") {
		t.Fatalf("ok line=%q", ok)
	}
	bad := renderSignal(models.Unavailable(models.SignalInternetSearch, &models.ConfigError{Key: "TAVILY_API_KEY", Reason: "missing"}))
	if !strings.Contains(bad, "✗") || !strings.Contains(bad, "config") {
		t.Fatalf("failed line=%q", bad)
	}
}

func TestRenderScorecard(t *testing.T) {
	got := renderScorecard(&models.ScoreCard{
		Technical: 70, Fundamental: 65, Sentiment: 55, Risk: 4, WeightedTotal: 61.5,
		Recommendation: models.Buy,
		Degraded:       []models.SignalName{models.SignalInternetSearch},
	})
	for _, want := range []string{"70.0/100", "4/10", "61.50/100", "Buy", "internet_search"} {
		if !strings.Contains(got, want) {
			t.Fatalf("scorecard missing %q:\n%s", want, got)
		}
	}
}

func TestAnalyzeWritesReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1,
"sentiment_votes_up_percentage":70,"sentiment_votes_down_percentage":30,
"market_data":{"current_price":{"usd":112},"market_cap":{"usd":1000},"total_volume":{"usd":50}}}`))
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[[1,100],[2,105],[3,103],[4,108],[5,112]],"total_volumes":[[1,10],[2,20],[3,30],[4,20],[5,25]]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "out", "bitcoin.md")
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`environment: test
log:
  level: error
coingecko:
  base_url: %s
metrics:
  enabled: false
report:
  mode: markdown
`, srv.URL)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAVILY_API_KEY", "")
	t.Setenv("REPORT_MODE", "")
	t.Setenv("KAFKA_BROKERS", "")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"analyze", "bitcoin", "--config", cfgPath, "--output", reportPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out.String())
	}

	b, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "Bitcoin") {
		t.Fatalf("report does not mention coin:\n%s", b)
	}
	if !strings.Contains(out.String(), "internet_search") || !strings.Contains(out.String(), reportPath) {
		t.Fatalf("output=%s", out.String())
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", "bitcoin", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	err := cmd.Execute()
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}
