package confirm

import "errors"

var (
	// Validation errors: reported synchronously, never retried automatically.
	ErrInvalidPayoutAddress    = errors.New("confirm: invalid payout address for this network")
	ErrMissingCollateralAmount = errors.New("confirm: missing collateral amount")

	// Payment errors: classified so the UI can pick the right treatment.
	// A rejection is the user backing out in the wallet, not a failure to
	// show a banner for.
	ErrPaymentRejected   = errors.New("payment rejected by user")
	ErrInsufficientFunds = errors.New("insufficient funds for collateral payment")
	ErrPaymentFailed     = errors.New("collateral payment failed")
)
