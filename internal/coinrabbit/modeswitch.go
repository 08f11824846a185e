package coinrabbit

import (
	"context"
	"net/url"
)

// ModeSwitch routes the get-loan and confirm families to the mock while
// everything else keeps hitting the live processor, mirroring the
// COINRABBIT_GET_LOAN_MODE / COINRABBIT_CONFIRM_MODE switches.
type ModeSwitch struct {
	Live        API
	Mock        API
	MockGetLoan bool
	MockConfirm bool
}

func (s *ModeSwitch) getLoanImpl() API {
	if s.MockGetLoan {
		return s.Mock
	}
	return s.Live
}

func (s *ModeSwitch) confirmImpl() API {
	if s.MockConfirm {
		return s.Mock
	}
	return s.Live
}

func (s *ModeSwitch) CreateUserToken(ctx context.Context) (string, error) {
	return s.Live.CreateUserToken(ctx)
}

func (s *ModeSwitch) GetLoan(ctx context.Context, token, loanID string) (*Payload, error) {
	return s.getLoanImpl().GetLoan(ctx, token, loanID)
}

func (s *ModeSwitch) CreateLoan(ctx context.Context, token string, req CreateLoanRequest) (*Payload, error) {
	return s.Live.CreateLoan(ctx, token, req)
}

func (s *ModeSwitch) ConfirmLoan(ctx context.Context, token, loanID, payoutAddress string, ui *UIMeta) (*Payload, error) {
	return s.confirmImpl().ConfirmLoan(ctx, token, loanID, payoutAddress, ui)
}

func (s *ModeSwitch) ValidateAddress(ctx context.Context, token string, req ValidateAddressRequest) (*ValidationResult, error) {
	return s.Live.ValidateAddress(ctx, token, req)
}

func (s *ModeSwitch) RefreshDepositAddress(ctx context.Context, token, loanID string) (*Payload, error) {
	return s.getLoanImpl().RefreshDepositAddress(ctx, token, loanID)
}

func (s *ModeSwitch) IncreaseEstimate(ctx context.Context, token, loanID, amount string) (*Payload, error) {
	return s.Live.IncreaseEstimate(ctx, token, loanID, amount)
}

func (s *ModeSwitch) CreateIncrease(ctx context.Context, token, loanID, amount string) (*Payload, error) {
	return s.Live.CreateIncrease(ctx, token, loanID, amount)
}

func (s *ModeSwitch) SaveIncreaseFallbackTx(ctx context.Context, token, loanID, hash string) (*Payload, error) {
	return s.Live.SaveIncreaseFallbackTx(ctx, token, loanID, hash)
}

func (s *ModeSwitch) PledgeEstimate(ctx context.Context, token, loanID string, params url.Values) (*Payload, error) {
	return s.Live.PledgeEstimate(ctx, token, loanID, params)
}

func (s *ModeSwitch) CreatePledgeRedemption(ctx context.Context, token, loanID string, req PledgeRedemptionRequest) (*Payload, error) {
	return s.Live.CreatePledgeRedemption(ctx, token, loanID, req)
}
