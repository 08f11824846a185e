package loan

import "strings"

type Phase string

const (
	PhaseDraft           Phase = "DRAFT"
	PhaseAwaitingDeposit Phase = "AWAITING_DEPOSIT"
	PhaseActive          Phase = "ACTIVE"
	PhaseClosing         Phase = "CLOSING"
	PhaseClosed          Phase = "CLOSED"
	PhaseLiquidated      Phase = "LIQUIDATED"
)

// phaseRank orders phases along the lifecycle. CLOSED and LIQUIDATED share a
// rank: both terminal, neither reachable from the other.
var phaseRank = map[Phase]int{
	PhaseDraft:           0,
	PhaseAwaitingDeposit: 1,
	PhaseActive:          2,
	PhaseClosing:         3,
	PhaseClosed:          4,
	PhaseLiquidated:      4,
}

func (p Phase) Terminal() bool { return p == PhaseClosed || p == PhaseLiquidated }

// AllowsTransition reports whether moving from p to next keeps the lifecycle
// monotone. A terminal phase admits nothing, not even itself switching to the
// other terminal; staying put is always allowed.
func (p Phase) AllowsTransition(next Phase) bool {
	if p == next {
		return true
	}
	if p.Terminal() {
		return false
	}
	return phaseRank[next] >= phaseRank[p]
}

// MapPhase maps a raw processor status onto a phase. The second return is
// false when the status carries no phase information and the caller must fall
// back to the deposit-transaction signal.
func MapPhase(rawStatus string) (Phase, bool) {
	switch strings.ToLower(strings.TrimSpace(rawStatus)) {
	case "closed":
		return PhaseClosed, true
	case "liquidated":
		return PhaseLiquidated, true
	case "pledge_redeemed", "pledge_transaction_sent":
		return PhaseClosing, true
	}
	return "", false
}

// DepositFinished reports whether a deposit transaction status
// (waiting|confirming|finished) has reached its end state.
func DepositFinished(depositTxStatus string) bool {
	return strings.Contains(strings.ToLower(depositTxStatus), "finished")
}

// closedMarkers: substrings of processor statuses past which a loan will not
// change again.
var closedMarkers = []string{"closed", "completed", "repaid", "cancel", "liquidat"}

// StatusClosed reports whether the raw status names a finished loan.
func StatusClosed(rawStatus string) bool {
	s := strings.ToLower(rawStatus)
	if s == "" {
		return false
	}
	for _, m := range closedMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
