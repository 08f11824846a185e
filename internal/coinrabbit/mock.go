package coinrabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
)

// Mock serves canned loan snapshots for development, advancing each loan's
// deposit through waiting -> confirming -> finished on successive reads so
// the polling flow can be exercised without the live processor.
type Mock struct {
	mu    sync.Mutex
	reads map[string]int
}

func NewMock() *Mock { return &Mock{reads: map[string]int{}} }

func (m *Mock) snapshot(loanID string, read int) *Snapshot {
	depTx := "waiting"
	switch {
	case read >= 4:
		depTx = "finished"
	case read >= 2:
		depTx = "confirming"
	}
	active := true
	zone := 0
	lp := 41250.0
	ip := 14.5
	mi := 12.08
	rate := 1.0
	return &Snapshot{
		ID:               loanID,
		Status:           "waiting_for_deposit",
		CurrentZone:      &zone,
		LiquidationPrice: &lp,
		InterestPercent:  &ip,
		InterestAmounts:  &InterestAmounts{Month: &mi},
		Deposit: &DepositState{
			Active:            &active,
			SendAddress:       "mock-deposit-" + loanID,
			TransactionStatus: depTx,
			USDTRate:          &rate,
			ExpectedAmount:    "100000000",
		},
	}
}

func (m *Mock) payload(s *Snapshot) *Payload {
	p := &Payload{Response: s}
	raw, _ := json.Marshal(map[string]any{"response": s})
	p.Raw = raw
	return p
}

func (m *Mock) GetLoan(_ context.Context, _, loanID string) (*Payload, error) {
	m.mu.Lock()
	m.reads[loanID]++
	n := m.reads[loanID]
	m.mu.Unlock()
	return m.payload(m.snapshot(loanID, n)), nil
}

func (m *Mock) ConfirmLoan(_ context.Context, _, loanID, _ string, _ *UIMeta) (*Payload, error) {
	s := m.snapshot(loanID, 0)
	s.Status = "wait_deposit"
	return m.payload(s), nil
}

func (m *Mock) CreateUserToken(context.Context) (string, error) { return "mock-token", nil }

func (m *Mock) CreateLoan(_ context.Context, _ string, _ CreateLoanRequest) (*Payload, error) {
	return m.payload(m.snapshot(fmt.Sprintf("mock-%d", len(m.reads)+1), 0)), nil
}

func (m *Mock) ValidateAddress(context.Context, string, ValidateAddressRequest) (*ValidationResult, error) {
	return &ValidationResult{Valid: true}, nil
}

func (m *Mock) RefreshDepositAddress(_ context.Context, _, loanID string) (*Payload, error) {
	return m.payload(m.snapshot(loanID, 0)), nil
}

func (m *Mock) IncreaseEstimate(_ context.Context, _, loanID, _ string) (*Payload, error) {
	return m.payload(m.snapshot(loanID, 0)), nil
}

func (m *Mock) CreateIncrease(_ context.Context, _, loanID, _ string) (*Payload, error) {
	return m.payload(m.snapshot(loanID, 0)), nil
}

func (m *Mock) SaveIncreaseFallbackTx(_ context.Context, _, loanID, _ string) (*Payload, error) {
	return m.payload(m.snapshot(loanID, 0)), nil
}

func (m *Mock) PledgeEstimate(_ context.Context, _, loanID string, _ url.Values) (*Payload, error) {
	return m.payload(m.snapshot(loanID, 0)), nil
}

func (m *Mock) CreatePledgeRedemption(_ context.Context, _, loanID string, _ PledgeRedemptionRequest) (*Payload, error) {
	s := m.snapshot(loanID, 0)
	s.Status = "pledge_transaction_sent"
	return m.payload(s), nil
}
