package api

import (
	"context"
	"net/http"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamEvent is one websocket frame: a settled signal, the final scorecard or an error.
type StreamEvent struct {
	Type      string            `json:"type"`
	RunID     string            `json:"run_id,omitempty"`
	Signal    *SignalView       `json:"signal,omitempty"`
	Scorecard *models.ScoreCard `json:"scorecard,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Stream upgrades to a websocket and pushes each signal as it settles. The
// run is cancelled when the client goes away.
func (h *ResearchHandler) Stream(c echo.Context) error {
	req := &models.ResearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("api.ws_upgrade_failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Reads only detect a closed peer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	send := func(ev StreamEvent) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			cancel()
		}
	}

	res, err := h.runner.Run(ctx, usecase.RunRequest{
		CoinID:        req.Coin,
		PatternDays:   req.Days,
		IndicatorDays: req.IndicatorDays,
		Observer: func(r models.SignalResult) {
			v := NewSignalView(r)
			send(StreamEvent{Type: "signal", Signal: &v})
		},
	})
	if err != nil {
		h.logger.Error("api.stream_failed", xlogger.String("coin", req.Coin), xlogger.Error(err))
		send(StreamEvent{Type: "error", Error: err.Error()})
	} else {
		send(StreamEvent{Type: "scorecard", RunID: res.RunID, Scorecard: res.Card})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
	return nil
}
