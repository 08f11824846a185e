package crmock

import (
	"context"
	"net/url"

	"cryptolend-backend/internal/coinrabbit"
)

// API is a function-backed mock that satisfies coinrabbit.API.
// Nil funcs return context.Canceled so an unexpected call fails loudly.
type API struct {
	CreateUserTokenFn        func(ctx context.Context) (string, error)
	GetLoanFn                func(ctx context.Context, token, loanID string) (*coinrabbit.Payload, error)
	CreateLoanFn             func(ctx context.Context, token string, req coinrabbit.CreateLoanRequest) (*coinrabbit.Payload, error)
	ConfirmLoanFn            func(ctx context.Context, token, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error)
	ValidateAddressFn        func(ctx context.Context, token string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error)
	RefreshDepositAddressFn  func(ctx context.Context, token, loanID string) (*coinrabbit.Payload, error)
	IncreaseEstimateFn       func(ctx context.Context, token, loanID, amount string) (*coinrabbit.Payload, error)
	CreateIncreaseFn         func(ctx context.Context, token, loanID, amount string) (*coinrabbit.Payload, error)
	SaveIncreaseFallbackTxFn func(ctx context.Context, token, loanID, hash string) (*coinrabbit.Payload, error)
	PledgeEstimateFn         func(ctx context.Context, token, loanID string, params url.Values) (*coinrabbit.Payload, error)
	CreatePledgeRedemptionFn func(ctx context.Context, token, loanID string, req coinrabbit.PledgeRedemptionRequest) (*coinrabbit.Payload, error)
}

func (m *API) CreateUserToken(ctx context.Context) (string, error) {
	if m.CreateUserTokenFn != nil {
		return m.CreateUserTokenFn(ctx)
	}
	return "tok-test", nil
}

func (m *API) GetLoan(ctx context.Context, token, loanID string) (*coinrabbit.Payload, error) {
	if m.GetLoanFn != nil {
		return m.GetLoanFn(ctx, token, loanID)
	}
	return nil, context.Canceled
}

func (m *API) CreateLoan(ctx context.Context, token string, req coinrabbit.CreateLoanRequest) (*coinrabbit.Payload, error) {
	if m.CreateLoanFn != nil {
		return m.CreateLoanFn(ctx, token, req)
	}
	return nil, context.Canceled
}

func (m *API) ConfirmLoan(ctx context.Context, token, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error) {
	if m.ConfirmLoanFn != nil {
		return m.ConfirmLoanFn(ctx, token, loanID, payoutAddress, ui)
	}
	return nil, context.Canceled
}

func (m *API) ValidateAddress(ctx context.Context, token string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error) {
	if m.ValidateAddressFn != nil {
		return m.ValidateAddressFn(ctx, token, req)
	}
	return nil, context.Canceled
}

func (m *API) RefreshDepositAddress(ctx context.Context, token, loanID string) (*coinrabbit.Payload, error) {
	if m.RefreshDepositAddressFn != nil {
		return m.RefreshDepositAddressFn(ctx, token, loanID)
	}
	return nil, context.Canceled
}

func (m *API) IncreaseEstimate(ctx context.Context, token, loanID, amount string) (*coinrabbit.Payload, error) {
	if m.IncreaseEstimateFn != nil {
		return m.IncreaseEstimateFn(ctx, token, loanID, amount)
	}
	return nil, context.Canceled
}

func (m *API) CreateIncrease(ctx context.Context, token, loanID, amount string) (*coinrabbit.Payload, error) {
	if m.CreateIncreaseFn != nil {
		return m.CreateIncreaseFn(ctx, token, loanID, amount)
	}
	return nil, context.Canceled
}

func (m *API) SaveIncreaseFallbackTx(ctx context.Context, token, loanID, hash string) (*coinrabbit.Payload, error) {
	if m.SaveIncreaseFallbackTxFn != nil {
		return m.SaveIncreaseFallbackTxFn(ctx, token, loanID, hash)
	}
	return nil, context.Canceled
}

func (m *API) PledgeEstimate(ctx context.Context, token, loanID string, params url.Values) (*coinrabbit.Payload, error) {
	if m.PledgeEstimateFn != nil {
		return m.PledgeEstimateFn(ctx, token, loanID, params)
	}
	return nil, context.Canceled
}

func (m *API) CreatePledgeRedemption(ctx context.Context, token, loanID string, req coinrabbit.PledgeRedemptionRequest) (*coinrabbit.Payload, error) {
	if m.CreatePledgeRedemptionFn != nil {
		return m.CreatePledgeRedemptionFn(ctx, token, loanID, req)
	}
	return nil, context.Canceled
}
