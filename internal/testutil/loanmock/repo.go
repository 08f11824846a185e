package loanmock

import (
	"context"

	domain "cryptolend-backend/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreateFn       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn  func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByUIDFn    func(ctx context.Context, uid string) ([]domain.Loan, error)
	ApplyPatchFn   func(ctx context.Context, loanID string, p domain.Patch) error
	ApplyConfirmFn func(ctx context.Context, loanID string, p domain.ConfirmPatch) error
	AppendEventFn  func(ctx context.Context, e *domain.Event) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByUID(ctx context.Context, uid string) ([]domain.Loan, error) {
	if m.ListByUIDFn != nil {
		return m.ListByUIDFn(ctx, uid)
	}
	return nil, nil
}

func (m *Repo) ApplyPatch(ctx context.Context, loanID string, p domain.Patch) error {
	if m.ApplyPatchFn != nil {
		return m.ApplyPatchFn(ctx, loanID, p)
	}
	return nil
}

func (m *Repo) ApplyConfirm(ctx context.Context, loanID string, p domain.ConfirmPatch) error {
	if m.ApplyConfirmFn != nil {
		return m.ApplyConfirmFn(ctx, loanID, p)
	}
	return nil
}

func (m *Repo) AppendEvent(ctx context.Context, e *domain.Event) error {
	if m.AppendEventFn != nil {
		return m.AppendEventFn(ctx, e)
	}
	return nil
}
