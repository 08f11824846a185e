package sync

import (
	"context"
	"errors"
	"time"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service drives the read-sync-write cycle: fetch the processor snapshot,
// merge it into the persisted record, hand the raw payload back so the UI
// can render it regardless of persistence outcome.
type Service struct {
	repo     loan.Repository
	api      coinrabbit.API
	sessions session.Provider
	log      *zap.Logger
}

func NewService(repo loan.Repository, api coinrabbit.API, sessions session.Provider, log *zap.Logger) *Service {
	return &Service{repo: repo, api: api, sessions: sessions, log: log}
}

// ReconcileAndPersist syncs one loan for its owner. Persistence is
// best-effort: a failed merge write is logged and swallowed so previously
// known data keeps rendering; only ownership and the processor read itself
// can fail the call.
func (s *Service) ReconcileAndPersist(ctx context.Context, uid, loanID string) (*coinrabbit.Payload, error) {
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

	token, err := s.sessions.EnsureToken(ctx, uid)
	if err != nil {
		return nil, err
	}

	payload, err := s.api.GetLoan(ctx, token, loanID)
	if err != nil {
		return nil, err
	}

	patch := Reconcile(rec, payload.Snapshot(), time.Now().UTC())
	if err := s.repo.ApplyPatch(ctx, loanID, patch); err != nil {
		s.log.Warn("sync: merge write failed, keeping previous record",
			zap.String("loan_id", loanID), zap.Error(err))
	}
	return payload, nil
}
