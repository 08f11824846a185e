package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	ListByUID(ctx context.Context, uid string) ([]Loan, error)

	// ApplyPatch / ApplyConfirm are field-level merge writes scoped to one
	// loan id; columns not named by the patch stay untouched.
	ApplyPatch(ctx context.Context, loanID string, p Patch) error
	ApplyConfirm(ctx context.Context, loanID string, p ConfirmPatch) error

	// AppendEvent writes to the append-only audit log.
	AppendEvent(ctx context.Context, e *Event) error
}
