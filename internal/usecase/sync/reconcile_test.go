package sync

import (
	"testing"
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestReconcile_CoalescesMissingFinancials(t *testing.T) {
	existing := &loan.Loan{
		LoanID:           "cr-1",
		Phase:            loan.PhaseActive,
		Status:           str("wait_deposit"),
		LiquidationPrice: f64(41000),
		MonthlyInterest:  f64(12.5),
		TxnHash:          str("0xabc"),
	}
	// Snapshot omits everything financial.
	snap := &coinrabbit.Snapshot{Status: "wait_deposit"}

	p := Reconcile(existing, snap, time.Now().UTC())

	if p.LiquidationPrice == nil || *p.LiquidationPrice != 41000 {
		t.Errorf("liquidation price reset: %v", p.LiquidationPrice)
	}
	if p.MonthlyInterest == nil || *p.MonthlyInterest != 12.5 {
		t.Errorf("monthly interest reset: %v", p.MonthlyInterest)
	}
	if p.TxnHash == nil || *p.TxnHash != "0xabc" {
		t.Errorf("txn hash reset: %v", p.TxnHash)
	}
}

func TestReconcile_FreshValuesWin(t *testing.T) {
	existing := &loan.Loan{
		LoanID:           "cr-1",
		Phase:            loan.PhaseActive,
		LiquidationPrice: f64(41000),
	}
	snap := &coinrabbit.Snapshot{
		Status:           "wait_deposit",
		LiquidationPrice: f64(42500),
		InterestAmounts:  &coinrabbit.InterestAmounts{Month: f64(9.9)},
		Deposit:          &coinrabbit.DepositState{USDTRate: f64(60111.5)},
	}

	p := Reconcile(existing, snap, time.Now().UTC())

	if p.LiquidationPrice == nil || *p.LiquidationPrice != 42500 {
		t.Errorf("liquidation price = %v, want 42500", p.LiquidationPrice)
	}
	if p.MonthlyInterest == nil || *p.MonthlyInterest != 9.9 {
		t.Errorf("monthly interest = %v, want 9.9", p.MonthlyInterest)
	}
	if p.CurrentRate == nil || *p.CurrentRate != 60111.5 {
		t.Errorf("current rate = %v, want 60111.5", p.CurrentRate)
	}
}

func TestReconcile_PhaseFromStatusTable(t *testing.T) {
	cases := []struct {
		status string
		from   loan.Phase
		want   loan.Phase
	}{
		{"closed", loan.PhaseActive, loan.PhaseClosed},
		{"liquidated", loan.PhaseClosing, loan.PhaseLiquidated},
		{"pledge_redeemed", loan.PhaseActive, loan.PhaseClosing},
		{"pledge_transaction_sent", loan.PhaseActive, loan.PhaseClosing},
		{"wait_deposit", loan.PhaseAwaitingDeposit, loan.PhaseAwaitingDeposit},
	}
	for _, tc := range cases {
		existing := &loan.Loan{LoanID: "cr-1", Phase: tc.from}
		snap := &coinrabbit.Snapshot{Status: tc.status}
		p := Reconcile(existing, snap, time.Now().UTC())
		if p.Phase != tc.want {
			t.Errorf("status %q from %s: phase = %s, want %s", tc.status, tc.from, p.Phase, tc.want)
		}
	}
}

func TestReconcile_DepositFinishedPromotesToActive(t *testing.T) {
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseAwaitingDeposit}
	snap := &coinrabbit.Snapshot{
		Status:  "wait_deposit",
		Deposit: &coinrabbit.DepositState{TransactionStatus: "finished"},
	}
	p := Reconcile(existing, snap, time.Now().UTC())
	if p.Phase != loan.PhaseActive {
		t.Fatalf("phase = %s, want ACTIVE", p.Phase)
	}
}

func TestReconcile_StatusTableBeatsDepositSignal(t *testing.T) {
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseActive}
	snap := &coinrabbit.Snapshot{
		Status:  "closed",
		Deposit: &coinrabbit.DepositState{TransactionStatus: "finished"},
	}
	p := Reconcile(existing, snap, time.Now().UTC())
	if p.Phase != loan.PhaseClosed {
		t.Fatalf("phase = %s, want CLOSED", p.Phase)
	}
}

func TestReconcile_NeverRegressesPhase(t *testing.T) {
	// A stale snapshot still says the deposit just finished, but the record
	// has moved on to CLOSING.
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseClosing}
	snap := &coinrabbit.Snapshot{
		Status:  "wait_deposit",
		Deposit: &coinrabbit.DepositState{TransactionStatus: "finished"},
	}
	p := Reconcile(existing, snap, time.Now().UTC())
	if p.Phase != loan.PhaseClosing {
		t.Fatalf("phase = %s, want CLOSING kept", p.Phase)
	}
}

func TestReconcile_TerminalPhaseFrozen(t *testing.T) {
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseClosed}
	snap := &coinrabbit.Snapshot{Status: "liquidated"}
	p := Reconcile(existing, snap, time.Now().UTC())
	if p.Phase != loan.PhaseClosed {
		t.Fatalf("phase = %s, want CLOSED kept", p.Phase)
	}
}

func TestReconcile_NilSnapshotKeepsRecord(t *testing.T) {
	existing := &loan.Loan{
		LoanID:           "cr-1",
		Phase:            loan.PhaseActive,
		Status:           str("wait_deposit"),
		LiquidationPrice: f64(41000),
	}
	now := time.Now().UTC()
	p := Reconcile(existing, nil, now)

	if p.Phase != loan.PhaseActive {
		t.Errorf("phase = %s, want ACTIVE", p.Phase)
	}
	if p.Status == nil || *p.Status != "wait_deposit" {
		t.Errorf("status = %v, want wait_deposit kept", p.Status)
	}
	if p.LiquidationPrice == nil || *p.LiquidationPrice != 41000 {
		t.Errorf("liquidation price = %v, want kept", p.LiquidationPrice)
	}
	if !p.CRLastSyncedAt.Equal(now) {
		t.Errorf("cr_last_synced_at = %v, want %v", p.CRLastSyncedAt, now)
	}
}

func TestReconcile_ZoneAndDepositStatusPassThrough(t *testing.T) {
	// current_zone and the deposit tx status mirror the snapshot verbatim,
	// including going back to nil when absent.
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseActive}

	zone := 2
	withZone := &coinrabbit.Snapshot{
		Status:      "wait_deposit",
		CurrentZone: &zone,
		Deposit:     &coinrabbit.DepositState{TransactionStatus: "confirming"},
	}
	p := Reconcile(existing, withZone, time.Now().UTC())
	if p.CRCurrentZone == nil || *p.CRCurrentZone != 2 {
		t.Errorf("zone = %v, want 2", p.CRCurrentZone)
	}
	if p.CRDepositTxStatus == nil || *p.CRDepositTxStatus != "confirming" {
		t.Errorf("deposit tx status = %v, want confirming", p.CRDepositTxStatus)
	}

	p = Reconcile(existing, &coinrabbit.Snapshot{Status: "wait_deposit"}, time.Now().UTC())
	if p.CRCurrentZone != nil {
		t.Errorf("zone = %v, want nil when absent", p.CRCurrentZone)
	}
	if p.CRDepositTxStatus != nil {
		t.Errorf("deposit tx status = %v, want nil when absent", p.CRDepositTxStatus)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	existing := &loan.Loan{LoanID: "cr-1", Phase: loan.PhaseAwaitingDeposit, LiquidationPrice: f64(40000)}
	snap := &coinrabbit.Snapshot{
		Status:           "wait_deposit",
		LiquidationPrice: f64(41000),
		Deposit:          &coinrabbit.DepositState{TransactionStatus: "waiting"},
	}
	now := time.Now().UTC()

	a := Reconcile(existing, snap, now)
	b := Reconcile(existing, snap, now)
	if a.Phase != b.Phase || *a.LiquidationPrice != *b.LiquidationPrice || *a.CRDepositTxStatus != *b.CRDepositTxStatus {
		t.Fatalf("two runs over the same inputs diverged: %+v vs %+v", a, b)
	}
}
