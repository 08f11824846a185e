package deposit

import (
	"context"
	"errors"

	"cryptolend-backend/internal/coinrabbit"
)

// ErrMissingDepositAddress means no active deposit address could be obtained
// even after a refresh; callers must not proceed to payment.
var ErrMissingDepositAddress = errors.New("deposit: no active deposit address")

// Resolver guarantees a payment never targets an expired deposit address.
// Resolution happens immediately before each payment, never cached.
type Resolver struct {
	api coinrabbit.API
}

func NewResolver(api coinrabbit.API) *Resolver { return &Resolver{api: api} }

// EnsureActiveDepositAddress returns the loan's current deposit address,
// refreshing it on the processor when the snapshot reports it inactive or
// missing. refreshed tells the caller whether a new address was issued.
func (r *Resolver) EnsureActiveDepositAddress(ctx context.Context, token, loanID string) (address string, refreshed bool, err error) {
	payload, err := r.api.GetLoan(ctx, token, loanID)
	if err != nil {
		return "", false, err
	}
	snap := payload.Snapshot()
	if snap.DepositActive() && snap.DepositAddress() != "" {
		return snap.DepositAddress(), false, nil
	}

	fresh, err := r.api.RefreshDepositAddress(ctx, token, loanID)
	if err != nil {
		return "", false, err
	}
	if addr := fresh.Snapshot().DepositAddress(); addr != "" {
		return addr, true, nil
	}

	// Some refresh responses omit the address; re-read once.
	again, err := r.api.GetLoan(ctx, token, loanID)
	if err != nil {
		return "", false, err
	}
	if addr := again.Snapshot().DepositAddress(); addr != "" {
		return addr, true, nil
	}
	return "", true, ErrMissingDepositAddress
}
