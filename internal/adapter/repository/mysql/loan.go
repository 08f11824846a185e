package mysql

import (
	"context"

	loanDomain "cryptolend-backend/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *LoanRepository) ListByUID(ctx context.Context, uid string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

// ApplyPatch writes exactly the reconciled columns. An explicit column map
// (not a struct) so nil pointers overwrite nothing they shouldn't: every key
// present here was already coalesced against the previous value by the
// reconciler. Columns outside the map are untouched.
func (r *LoanRepository) ApplyPatch(ctx context.Context, loanID string, p loanDomain.Patch) error {
	updates := map[string]any{
		"phase":                p.Phase,
		"status":               p.Status,
		"liquidation_price":    p.LiquidationPrice,
		"interest_percent":     p.InterestPercent,
		"monthly_interest":     p.MonthlyInterest,
		"current_rate":         p.CurrentRate,
		"txn_hash":             p.TxnHash,
		"full_repayment":       p.FullRepayment,
		"cr_last_synced_at":    p.CRLastSyncedAt,
		"cr_status":            p.CRStatus,
		"cr_deposit_tx_status": p.CRDepositTxStatus,
		"cr_current_zone":      p.CRCurrentZone,
		"updated_at":           p.UpdatedAt,
	}
	return r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ?", loanID).
		Updates(updates).Error
}

func (r *LoanRepository) ApplyConfirm(ctx context.Context, loanID string, p loanDomain.ConfirmPatch) error {
	updates := map[string]any{
		"phase":                  p.Phase,
		"status":                 p.Status,
		"cr_last_synced_at":      p.CRLastSyncedAt,
		"cr_status":              p.CRStatus,
		"confirm_payout_address": p.PayoutAddress,
		"confirmed_at":           p.ConfirmedAt,
		"updated_at":             p.UpdatedAt,
	}
	if p.CRDepositAddress != nil {
		updates["cr_deposit_address"] = p.CRDepositAddress
	}
	if len(p.UIMeta) > 0 {
		updates["ui_meta"] = []byte(p.UIMeta)
	}
	return r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ?", loanID).
		Updates(updates).Error
}

// AppendEvent only ever inserts; the audit log has no update or delete path.
func (r *LoanRepository) AppendEvent(ctx context.Context, e *loanDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}
