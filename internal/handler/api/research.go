package api

import (
	"context"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Runner executes one research pipeline run.
type Runner interface {
	Run(ctx context.Context, req usecase.RunRequest) (*usecase.RunResult, error)
}

// ClientLimiter admits or rejects a request for a client key.
type ClientLimiter interface {
	Allow(key string) bool
}

// ResearchHandler serves research runs over JSON and websocket.
type ResearchHandler struct {
	logger  *xlogger.Logger
	runner  Runner
	limiter ClientLimiter
}

func NewResearchHandler(logger *xlogger.Logger, runner Runner, limiter ClientLimiter) *ResearchHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &ResearchHandler{logger: logger.Named("api"), runner: runner, limiter: limiter}
}

func (h *ResearchHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/api/research/:coin", h.Research)
	e.GET("/ws/research/:coin", h.Stream)
}

func (h *ResearchHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"state": "ok"})
}

func (h *ResearchHandler) Research(c echo.Context) error {
	req := &models.ResearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many research requests", 429))
	}

	res, err := h.runner.Run(c.Request().Context(), usecase.RunRequest{
		CoinID:        req.Coin,
		PatternDays:   req.Days,
		IndicatorDays: req.IndicatorDays,
	})
	if err != nil {
		h.logger.Error("api.research_failed", xlogger.String("coin", req.Coin), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}
	return xhttp.SuccessResponse(c, NewResearchResponse(res, req.Report))
}

// SignalView is the JSON shape of one signal result.
type SignalView struct {
	Name      models.SignalName `json:"name"`
	Status    string            `json:"status"`
	Summary   string            `json:"summary,omitempty"`
	Kind      models.ErrorKind  `json:"kind,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Data      any               `json:"data,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

func NewSignalView(r models.SignalResult) SignalView {
	v := SignalView{Name: r.Name, ElapsedMS: r.Elapsed.Milliseconds()}
	if r.OK() {
		v.Status = "ok"
		v.Summary = r.Summary
		v.Data = r.Data
		return v
	}
	v.Status = "unavailable"
	v.Kind = r.Err.Kind
	v.Reason = r.Err.Reason
	return v
}

type ResearchResponse struct {
	RunID       string            `json:"run_id"`
	Coin        string            `json:"coin"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Signals     []SignalView      `json:"signals"`
	Scorecard   *models.ScoreCard `json:"scorecard"`
	Report      string            `json:"report,omitempty"`
}

// NewResearchResponse lists signals in report order. The report body is
// included only on request.
func NewResearchResponse(res *usecase.RunResult, withReport bool) ResearchResponse {
	out := ResearchResponse{
		RunID:       res.RunID,
		Coin:        res.Bundle.AssetID,
		StartedAt:   res.Bundle.StartedAt,
		CompletedAt: res.Bundle.CompletedAt,
		Scorecard:   res.Card,
	}
	for _, n := range models.AllSignals {
		r, _ := res.Bundle.Get(n)
		out.Signals = append(out.Signals, NewSignalView(r))
	}
	if withReport {
		out.Report = res.Report
	}
	return out
}
