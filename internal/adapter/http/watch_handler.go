package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/session"
	"cryptolend-backend/internal/usecase/loans"
	"cryptolend-backend/internal/watcher"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WatchHandler streams watcher events over SSE until the loan's terminal
// condition or the client going away.
type WatchHandler struct {
	loans    *loans.Service
	api      coinrabbit.API
	sessions session.Provider
	interval time.Duration
	log      *zap.Logger
}

func NewWatchHandler(loansSvc *loans.Service, api coinrabbit.API, sessions session.Provider, interval time.Duration, log *zap.Logger) *WatchHandler {
	return &WatchHandler{loans: loansSvc, api: api, sessions: sessions, interval: interval, log: log}
}

// tokenFetcher binds a user token so the watcher only sees loan ids.
type tokenFetcher struct {
	api   coinrabbit.API
	token string
}

func (f *tokenFetcher) GetLoan(ctx context.Context, loanID string) (*coinrabbit.Payload, error) {
	return f.api.GetLoan(ctx, f.token, loanID)
}

type watchEvent struct {
	Kind     string `json:"kind"`
	Step     int    `json:"step,omitempty"`
	Error    string `json:"error,omitempty"`
	Snapshot any    `json:"snapshot,omitempty"`
}

func (h *WatchHandler) Watch(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	uid := middleware.UID(c)

	// Ownership gate before any processor traffic.
	if _, err := h.loans.Get(c.Request().Context(), uid, loanID); err != nil {
		return writeErr(c, err)
	}

	track := watcher.TrackDeposit
	if c.QueryParam("track") == string(watcher.TrackRepayment) {
		track = watcher.TrackRepayment
	}

	token, err := h.sessions.EnsureToken(c.Request().Context(), uid)
	if err != nil {
		return writeErr(c, err)
	}

	w := watcher.New(&tokenFetcher{api: h.api, token: token}, track, h.interval, h.log)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	events := w.Watch(ctx, loanID)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-store")
	resp.WriteHeader(http.StatusOK)

	for ev := range events {
		out := watchEvent{}
		switch ev.Type {
		case watcher.StepChanged:
			out.Kind = "step"
			out.Step = ev.Step
		case watcher.Terminal:
			out.Kind = "terminal"
			out.Step = ev.Step
		case watcher.TransientError:
			out.Kind = "transient_error"
			out.Error = ev.Err.Error()
		}
		if ev.Snapshot != nil {
			out.Snapshot = json.RawMessage(ev.Snapshot.Raw)
		}
		b, _ := json.Marshal(out)
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", b); err != nil {
			return nil // client went away; watcher is torn down via ctx
		}
		resp.Flush()
		if ev.Type == watcher.Terminal {
			break
		}
	}
	return nil
}
