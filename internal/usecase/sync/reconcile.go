package sync

import (
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
)

// Reconcile merges a fresh processor snapshot into the persisted record and
// returns the field-level patch to write. It is pure: same inputs, same
// patch, so concurrent syncs of the same snapshot converge.
//
// Rules:
//   - every financial field keeps its previous value when the snapshot
//     omits it; a known value is never reset to nil
//   - the phase candidate comes from the status table first, then from the
//     deposit-finished promotion, else stays put
//   - the candidate is dropped when it would move the phase backwards, and
//     a terminal phase (CLOSED/LIQUIDATED) never changes again
//
// A nil or partially missing snapshot is fine: absent fields read as nil and
// the previous values carry through.
func Reconcile(existing *loan.Loan, snap *coinrabbit.Snapshot, now time.Time) loan.Patch {
	p := loan.Patch{
		Phase:          nextPhase(existing.Phase, snap),
		Status:         coalesceStr(nonEmpty(snap.RawStatus()), existing.Status),
		CRLastSyncedAt: now,
		CRStatus:       nonEmpty(snap.RawStatus()),
		UpdatedAt:      now,
	}

	p.LiquidationPrice = coalesceF64(snap.LiquidationPriceValue(), existing.LiquidationPrice)
	p.InterestPercent = coalesceF64(snap.InterestPercentValue(), existing.InterestPercent)
	p.MonthlyInterest = coalesceF64(snap.MonthlyInterest(), existing.MonthlyInterest)
	p.CurrentRate = coalesceF64(snap.CurrentRate(), existing.CurrentRate)
	p.TxnHash = coalesceStr(snap.TxnHash(), existing.TxnHash)
	p.FullRepayment = coalesceStr(snap.FullRepayment(), existing.FullRepayment)

	p.CRDepositTxStatus = nonEmpty(snap.DepositTxStatus())
	p.CRCurrentZone = snap.ZoneValue()

	return p
}

func nextPhase(current loan.Phase, snap *coinrabbit.Snapshot) loan.Phase {
	candidate := current
	if mapped, ok := loan.MapPhase(snap.RawStatus()); ok {
		candidate = mapped
	} else if loan.DepositFinished(snap.DepositTxStatus()) {
		candidate = loan.PhaseActive
	}
	if !current.AllowsTransition(candidate) {
		return current
	}
	return candidate
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func coalesceStr(next, prev *string) *string {
	if next != nil {
		return next
	}
	return prev
}

func coalesceF64(next, prev *float64) *float64 {
	if next != nil {
		return next
	}
	return prev
}
