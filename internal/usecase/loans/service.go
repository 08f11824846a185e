package loans

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/session"
	"cryptolend-backend/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingAmount       = errors.New("loans: amount is required")
	ErrBadPledgeRequest    = errors.New("loans: pledge request missing required fields")
	ErrProcessorGaveNoLoan = errors.New("loans: processor response carried no loan id")
)

// Service owns the loan record lifecycle outside the sync/confirm cores:
// draft creation, reads, and the increase / pledge-redemption passthroughs.
type Service struct {
	repo     loan.Repository
	api      coinrabbit.API
	sessions session.Provider
	mockMode bool
	log      *zap.Logger
}

func NewService(repo loan.Repository, api coinrabbit.API, sessions session.Provider, mockMode bool, log *zap.Logger) *Service {
	return &Service{repo: repo, api: api, sessions: sessions, mockMode: mockMode, log: log}
}

// Create proxies loan creation to the processor and persists the DRAFT
// record. The external loan id is wherever the processor put it; without one
// there is nothing to persist and the caller gets an error alongside the raw
// payload so the UI can still show what the processor said.
func (s *Service) Create(ctx context.Context, uid string, req coinrabbit.CreateLoanRequest) (*coinrabbit.Payload, error) {
	token, err := s.sessions.EnsureToken(ctx, uid)
	if err != nil {
		return nil, err
	}
	payload, err := s.api.CreateLoan(ctx, token, req)
	if err != nil {
		return nil, err
	}

	snap := payload.Snapshot()
	loanID := snap.ExtractLoanID()
	if loanID == "" {
		return payload, ErrProcessorGaveNoLoan
	}

	now := time.Now().UTC()
	status := "created"
	if v := snap.RawStatus(); v != "" {
		status = v
	}

	rec := &loan.Loan{
		LoanID:           loanID,
		UID:              uid,
		Phase:            loan.PhaseDraft,
		Status:           &status,
		LiquidationPrice: snap.LiquidationPriceValue(),
		InterestPercent:  snap.InterestPercentValue(),
		MonthlyInterest:  snap.MonthlyInterest(),
		CurrentRate:      snap.CurrentRate(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if snap != nil && snap.Deposit != nil {
		rec.DepositTerms, _ = json.Marshal(snap.Deposit)
	}
	if snap != nil && snap.Loan != nil {
		rec.BorrowTerms, _ = json.Marshal(snap.Loan)
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return payload, err
	}

	reqJSON, _ := json.Marshal(req)
	if err := s.repo.AppendEvent(ctx, &loan.Event{
		EventID: id.NewEventID(),
		LoanID:  loanID,
		Type:    "create",
		At:      now,
		Payload: reqJSON,
		Raw:     payload.Raw,
		Mode:    s.mode(),
	}); err != nil {
		s.log.Warn("loans: create event append failed", zap.String("loan_id", loanID), zap.Error(err))
	}
	return payload, nil
}

func (s *Service) Get(ctx context.Context, uid, loanID string) (*loan.Loan, error) {
	return s.ownedLoan(ctx, uid, loanID)
}

func (s *Service) List(ctx context.Context, uid string) ([]loan.Loan, error) {
	return s.repo.ListByUID(ctx, uid)
}

func (s *Service) RefreshDepositAddress(ctx context.Context, uid, loanID string) (*coinrabbit.Payload, error) {
	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	return s.api.RefreshDepositAddress(ctx, token, loanID)
}

func (s *Service) ValidateAddress(ctx context.Context, uid string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error) {
	token, err := s.sessions.EnsureToken(ctx, uid)
	if err != nil {
		return nil, err
	}
	req.Address = strings.TrimSpace(req.Address)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Network = strings.ToUpper(strings.TrimSpace(req.Network))
	if req.Tag != nil {
		t := strings.TrimSpace(*req.Tag)
		req.Tag = &t
	}
	return s.api.ValidateAddress(ctx, token, req)
}

func (s *Service) IncreaseEstimate(ctx context.Context, uid, loanID, amount string) (*coinrabbit.Payload, error) {
	if strings.TrimSpace(amount) == "" {
		return nil, ErrMissingAmount
	}
	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	return s.api.IncreaseEstimate(ctx, token, loanID, amount)
}

func (s *Service) CreateIncrease(ctx context.Context, uid, loanID, amount string) (*coinrabbit.Payload, error) {
	if strings.TrimSpace(amount) == "" {
		return nil, ErrMissingAmount
	}
	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	payload, err := s.api.CreateIncrease(ctx, token, loanID, amount)
	if err != nil {
		return nil, err
	}
	s.appendEvent(ctx, loanID, "increase", map[string]string{"amount": amount}, payload.Raw)
	return payload, nil
}

func (s *Service) SaveIncreaseFallbackTx(ctx context.Context, uid, loanID, hash string) (*coinrabbit.Payload, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, errors.New("loans: hash is required")
	}
	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	payload, err := s.api.SaveIncreaseFallbackTx(ctx, token, loanID, hash)
	if err != nil {
		return nil, err
	}
	s.appendEvent(ctx, loanID, "increase_fallback_tx", map[string]string{"hash": hash}, payload.Raw)
	return payload, nil
}

func (s *Service) PledgeEstimate(ctx context.Context, uid, loanID string, params url.Values) (*coinrabbit.Payload, error) {
	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	return s.api.PledgeEstimate(ctx, token, loanID, params)
}

// CreatePledgeRedemption starts closing the loan: repay and redeem the
// pledge. The subsequent status flips (pledge_transaction_sent,
// pledge_redeemed, closed) reach the record through the normal sync path.
func (s *Service) CreatePledgeRedemption(ctx context.Context, uid, loanID string, req coinrabbit.PledgeRedemptionRequest) (*coinrabbit.Payload, error) {
	req.Address = strings.TrimSpace(req.Address)
	req.ReceiveFrom = strings.TrimSpace(req.ReceiveFrom)
	req.RepayByNetwork = strings.TrimSpace(req.RepayByNetwork)
	req.RepayByCode = strings.TrimSpace(req.RepayByCode)
	if req.Address == "" || req.ReceiveFrom == "" || req.RepayByNetwork == "" || req.RepayByCode == "" {
		return nil, ErrBadPledgeRequest
	}

	token, err := s.tokenForOwned(ctx, uid, loanID)
	if err != nil {
		return nil, err
	}
	payload, err := s.api.CreatePledgeRedemption(ctx, token, loanID, req)
	if err != nil {
		return nil, err
	}
	reqJSON, _ := json.Marshal(req)
	s.appendEventRaw(ctx, loanID, "pledge", reqJSON, payload.Raw)
	return payload, nil
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

func (s *Service) tokenForOwned(ctx context.Context, uid, loanID string) (string, error) {
	if _, err := s.ownedLoan(ctx, uid, loanID); err != nil {
		return "", err
	}
	return s.sessions.EnsureToken(ctx, uid)
}

func (s *Service) appendEvent(ctx context.Context, loanID, typ string, payload map[string]string, raw json.RawMessage) {
	b, _ := json.Marshal(payload)
	s.appendEventRaw(ctx, loanID, typ, b, raw)
}

func (s *Service) appendEventRaw(ctx context.Context, loanID, typ string, payload, raw json.RawMessage) {
	if err := s.repo.AppendEvent(ctx, &loan.Event{
		EventID: id.NewEventID(),
		LoanID:  loanID,
		Type:    typ,
		At:      time.Now().UTC(),
		Payload: payload,
		Raw:     raw,
		Mode:    s.mode(),
	}); err != nil {
		s.log.Warn("loans: event append failed", zap.String("loan_id", loanID), zap.String("type", typ), zap.Error(err))
	}
}

func (s *Service) mode() string {
	if s.mockMode {
		return "mock"
	}
	return "live"
}
