package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/session"
	"cryptolend-backend/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentRequest is handed to the wallet capability. AmountAtomic is the
// exact on-chain amount in the token's smallest unit; it is never defaulted.
type PaymentRequest struct {
	Chain        string
	Recipient    string
	AmountAtomic string
}

// PaymentSender submits an on-chain transfer. Implementations classify
// failures into ErrPaymentRejected / ErrInsufficientFunds / ErrPaymentFailed.
// Send is not idempotent; the orchestrator invokes it at most once per run.
type PaymentSender interface {
	Send(ctx context.Context, req PaymentRequest) (txID string, err error)
}

// AddressResolver is deposit.Resolver's contract.
type AddressResolver interface {
	EnsureActiveDepositAddress(ctx context.Context, token, loanID string) (address string, refreshed bool, err error)
}

type Service struct {
	repo     loan.Repository
	api      coinrabbit.API
	sessions session.Provider
	resolver AddressResolver
	payments PaymentSender
	mockMode bool
	log      *zap.Logger
}

func NewService(repo loan.Repository, api coinrabbit.API, sessions session.Provider,
	resolver AddressResolver, payments PaymentSender, mockMode bool, log *zap.Logger) *Service {
	return &Service{
		repo: repo, api: api, sessions: sessions,
		resolver: resolver, payments: payments, mockMode: mockMode, log: log,
	}
}

type Input struct {
	UID           string
	LoanID        string
	PayoutAddress string

	// Payout side, needed for the anti-bypass address validation.
	BorrowCode    string
	BorrowNetwork string
	Tag           *string

	// Collateral side.
	ChainFamily string
	// Fallback collateral amount captured at estimate/create time, used when
	// the confirm response does not state one.
	EstimateAmountAtomic string

	UI *coinrabbit.UIMeta
}

type Result struct {
	Confirm        *coinrabbit.Payload
	DepositAddress string
	Refreshed      bool
	TxID           string
	FreshLoan      *coinrabbit.Payload
}

// Confirm runs the confirm step alone: call the processor, then merge the
// confirmed state into the record and append the audit event. The merge
// write failing aborts the flow; confirm is idempotent on the processor
// side, so the caller may simply retry.
func (s *Service) Confirm(ctx context.Context, uid, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error) {
	rec, err := s.ownedLoan(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.EnsureToken(ctx, uid)
	if err != nil {
		return nil, err
	}

	payload, err := s.api.ConfirmLoan(ctx, token, loanID, payoutAddress, ui)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snap := payload.Snapshot()

	status := snap.RawStatus()
	if status == "" {
		status = "confirmed"
	}
	phase := rec.Phase
	if rec.Phase.AllowsTransition(loan.PhaseAwaitingDeposit) {
		phase = loan.PhaseAwaitingDeposit
	}

	patch := loan.ConfirmPatch{
		Phase:          phase,
		Status:         &status,
		CRLastSyncedAt: now,
		CRStatus:       strPtrIfSet(snap.RawStatus()),
		PayoutAddress:  payoutAddress,
		ConfirmedAt:    now,
		UpdatedAt:      now,
	}
	if addr := snap.DepositAddress(); addr != "" {
		patch.CRDepositAddress = &addr
	}
	if ui != nil {
		if b, err := json.Marshal(ui); err == nil {
			patch.UIMeta = b
		}
	}
	if err := s.repo.ApplyConfirm(ctx, loanID, patch); err != nil {
		return nil, err
	}

	evPayload, _ := json.Marshal(map[string]string{"payout_address": payoutAddress})
	ev := &loan.Event{
		EventID: id.NewEventID(),
		LoanID:  loanID,
		Type:    "confirm",
		At:      now,
		Payload: evPayload,
		Raw:     payload.Raw,
		Mode:    s.mode(),
	}
	if err := s.repo.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}
	return payload, nil
}

// ConfirmAndPay is the full user action: validate payout address, confirm
// the loan, resolve a live deposit address, submit the collateral payment,
// then best-effort re-read the loan for immediate UI feedback. Steps run
// strictly in order and fail fast; only the payment step has on-chain side
// effects, so everything before it is retry-safe.
func (s *Service) ConfirmAndPay(ctx context.Context, in Input) (*Result, error) {
	token, err := s.sessions.EnsureToken(ctx, in.UID)
	if err != nil {
		return nil, err
	}

	// 1) Final validation (anti-bypass: the UI validated already, revalidate
	// here so nothing pays out to an unchecked address).
	if in.BorrowCode == "" || in.BorrowNetwork == "" {
		return nil, ErrInvalidPayoutAddress
	}
	check, err := s.api.ValidateAddress(ctx, token, coinrabbit.ValidateAddressRequest{
		Address: strings.TrimSpace(in.PayoutAddress),
		Code:    strings.ToUpper(strings.TrimSpace(in.BorrowCode)),
		Network: strings.ToUpper(strings.TrimSpace(in.BorrowNetwork)),
		Tag:     in.Tag,
	})
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, ErrInvalidPayoutAddress
	}

	// 2) Confirm with the processor and persist the confirmed state.
	confirmPayload, err := s.Confirm(ctx, in.UID, in.LoanID, in.PayoutAddress, in.UI)
	if err != nil {
		return nil, err
	}

	// 3) Collateral amount: confirm response first, then the stored
	// estimate. Never guessed.
	amount := confirmPayload.Snapshot().CollateralAmountAtomic()
	if amount == "" {
		amount = strings.TrimSpace(in.EstimateAmountAtomic)
	}
	if amount == "" {
		return nil, ErrMissingCollateralAmount
	}

	// 4) Deposit address preflight, refreshing if expired.
	depositAddr, refreshed, err := s.resolver.EnsureActiveDepositAddress(ctx, token, in.LoanID)
	if err != nil {
		return nil, err
	}

	// 5) Send collateral. Not retried here under any circumstances.
	txID, err := s.payments.Send(ctx, PaymentRequest{
		Chain:        in.ChainFamily,
		Recipient:    depositAddr,
		AmountAtomic: amount,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Confirm:        confirmPayload,
		DepositAddress: depositAddr,
		Refreshed:      refreshed,
		TxID:           txID,
	}

	// 6) Best-effort refresh for the UI.
	if fresh, err := s.api.GetLoan(ctx, token, in.LoanID); err == nil {
		res.FreshLoan = fresh
	} else {
		s.log.Debug("confirm: post-payment loan read failed", zap.String("loan_id", in.LoanID), zap.Error(err))
	}
	return res, nil
}

func (s *Service) ownedLoan(ctx context.Context, uid, loanID string) (*loan.Loan, error) {
	rec, err := s.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	if rec.UID != uid {
		return nil, loan.ErrForbidden
	}
	return rec, nil
}

func (s *Service) mode() string {
	if s.mockMode {
		return "mock"
	}
	return "live"
}

func strPtrIfSet(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
