package watcher

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"

	"go.uber.org/zap"
)

// Track selects the terminal condition being watched for.
type Track string

const (
	// TrackDeposit stops when the collateral deposit finishes (or the loan
	// closes underneath it).
	TrackDeposit Track = "deposit"
	// TrackRepayment stops only when the loan itself is closed for real.
	TrackRepayment Track = "repayment"
)

// minInterval bounds the request rate regardless of configuration input.
const minInterval = 3 * time.Second

type State int32

const (
	StateIdle State = iota
	StateListening
	StateFinal
)

type EventType int

const (
	// StepChanged reports the 0..3 progress indicator derived from the
	// deposit transaction status.
	StepChanged EventType = iota
	// Terminal is delivered exactly once; no polls follow it.
	Terminal
	// TransientError records a failed tick. Polling continues.
	TransientError
)

type Event struct {
	Type     EventType
	Step     int
	Snapshot *coinrabbit.Payload
	Err      error
}

// Fetcher is the read-only slice of the processor API a watcher needs.
type Fetcher interface {
	GetLoan(ctx context.Context, loanID string) (*coinrabbit.Payload, error)
}

// Watcher polls one loan until its terminal condition. Independent watchers
// on the same loan need no coordination: they only read.
type Watcher struct {
	fetch    Fetcher
	track    Track
	interval time.Duration
	state    atomic.Int32
	log      *zap.Logger
}

func New(fetch Fetcher, track Track, interval time.Duration, log *zap.Logger) *Watcher {
	if interval < minInterval {
		interval = minInterval
	}
	return &Watcher{fetch: fetch, track: track, interval: interval, log: log}
}

func (w *Watcher) State() State { return State(w.state.Load()) }

func (w *Watcher) Interval() time.Duration { return w.interval }

// Watch starts polling and returns the event stream. The stream closes when
// the terminal condition is reached or ctx is canceled; results of requests
// that land after cancellation are discarded, never sent.
func (w *Watcher) Watch(ctx context.Context, loanID string) <-chan Event {
	out := make(chan Event, 8)
	w.state.Store(int32(StateListening))

	go func() {
		defer close(out)

		// First tick immediately, then on the interval. The loop body is
		// synchronous, so at most one request is ever in flight; ticks that
		// would overlap a slow request are dropped by the ticker, not queued.
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		lastStep := -1
		for {
			if done := w.tick(ctx, loanID, out, &lastStep); done {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

// tick runs one poll. Returns true when polling must stop for good.
func (w *Watcher) tick(ctx context.Context, loanID string, out chan<- Event, lastStep *int) bool {
	payload, err := w.fetch.GetLoan(ctx, loanID)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		w.log.Debug("watcher: poll failed", zap.String("loan_id", loanID), zap.Error(err))
		return !send(ctx, out, Event{Type: TransientError, Err: err})
	}

	snap := payload.Snapshot()

	step := StepFor(snap.DepositTxStatus())
	if step != *lastStep {
		*lastStep = step
		if !send(ctx, out, Event{Type: StepChanged, Step: step, Snapshot: payload}) {
			return true
		}
	}

	if w.terminal(snap) {
		w.state.Store(int32(StateFinal))
		send(ctx, out, Event{Type: Terminal, Step: step, Snapshot: payload})
		return true
	}
	return false
}

func (w *Watcher) terminal(snap *coinrabbit.Snapshot) bool {
	if w.track == TrackDeposit && loan.DepositFinished(snap.DepositTxStatus()) {
		return true
	}
	return loan.StatusClosed(snap.RawStatus())
}

func send(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// StepFor maps the deposit transaction status onto the progress stepper:
// waiting 1, confirming 2, finished 3, anything else 0 (awaiting collateral).
func StepFor(depositTxStatus string) int {
	switch {
	case loan.DepositFinished(depositTxStatus):
		return 3
	case strings.Contains(strings.ToLower(depositTxStatus), "confirming"):
		return 2
	case strings.Contains(strings.ToLower(depositTxStatus), "waiting"):
		return 1
	}
	return 0
}
