package tavily

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.tavily.com"

	topResults     = 3
	contentPreview = 200
	blockDelimiter = "\n\n---\n\n"
)

// Config holds Tavily client settings.
type Config struct {
	BaseURL     string
	APIKey      string
	SearchDepth string
	MaxResults  int
	Timeout     time.Duration
}

// Client runs Tavily searches one POST per query.
type Client struct {
	http    *resty.Client
	cfg     Config
	log     *logger.Logger
	metrics repository.Metrics
}

var _ repository.SearchProvider = (*Client)(nil)

func New(cfg Config, log *logger.Logger, metrics repository.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Client{http: client, cfg: cfg, log: log.Named("tavily"), metrics: metrics}
}

type searchRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs every query in order. A failing query becomes an inline error
// block and the batch continues. A missing API key fails the whole batch.
func (c *Client) Search(ctx context.Context, queries []string) (models.WebResearch, error) {
	if c.cfg.APIKey == "" {
		return models.WebResearch{}, &models.ConfigError{Key: "TAVILY_API_KEY", Reason: "search API key not set"}
	}

	out := models.WebResearch{Queries: make([]models.QueryResult, 0, len(queries))}
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return models.WebResearch{}, fmt.Errorf("search %q: %w", q, err)
		}
		qr := c.searchOne(ctx, q)
		if qr.Err != "" {
			out.Failed++
		}
		out.Queries = append(out.Queries, qr)
	}
	out.Text = Render(out.Queries)
	return out, nil
}

func (c *Client) searchOne(ctx context.Context, query string) models.QueryResult {
	start := time.Now()
	var body searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{
			APIKey:         c.cfg.APIKey,
			Query:          query,
			SearchDepth:    c.cfg.SearchDepth,
			IncludeAnswer:  true,
			MaxResults:     c.cfg.MaxResults,
			IncludeDomains: []string{},
			ExcludeDomains: []string{},
		}).
		SetResult(&body).
		Post("/search")
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.RecordUpstream("api.tavily.com", 0, elapsed.Seconds())
		c.log.Warn("tavily.query_failed", logger.String("query", query), logger.Error(err))
		return models.QueryResult{Query: query, Err: fmt.Sprintf("Tavily request failed (%v)", err)}
	}
	c.metrics.RecordUpstream("api.tavily.com", resp.StatusCode(), elapsed.Seconds())
	if !resp.IsSuccess() {
		c.log.Warn("tavily.query_status",
			logger.String("query", query),
			logger.Int("status", resp.StatusCode()),
		)
		return models.QueryResult{Query: query, Err: fmt.Sprintf("Tavily API error (%d)", resp.StatusCode())}
	}

	qr := models.QueryResult{Query: query, Answer: body.Answer}
	for _, r := range body.Results {
		qr.Hits = append(qr.Hits, models.SearchHit{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	c.log.Debug("tavily.query_ok",
		logger.String("query", query),
		logger.Int("hits", len(qr.Hits)),
		logger.Duration("duration_ms", elapsed),
	)
	return qr
}

// Render formats query results as delimiter-separated text blocks in input order.
func Render(results []models.QueryResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, renderBlock(r))
	}
	return strings.Join(blocks, blockDelimiter)
}

func renderBlock(r models.QueryResult) string {
	if r.Err != "" {
		return fmt.Sprintf("Error for '%s': %s", r.Query, r.Err)
	}
	if len(r.Hits) == 0 {
		return fmt.Sprintf("Query: '%s'\nNo search results found.", r.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: '%s'\n", r.Query)
	if r.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", r.Answer)
	}
	b.WriteString("Top results:\n")
	for i, h := range r.Hits {
		if i == topResults {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   %s...\n   URL: %s\n\n", i+1, h.Title, truncate(h.Content, contentPreview), h.URL)
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
