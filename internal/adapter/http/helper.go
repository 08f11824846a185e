package http

import (
	"errors"
	"net/http"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/usecase/confirm"
	"cryptolend-backend/internal/usecase/deposit"
	"cryptolend-backend/internal/usecase/loans"

	"github.com/labstack/echo/v4"
)

// writeErr maps usecase errors onto HTTP responses. An *APIError from the
// processor passes through with its upstream status, like the original proxy
// routes did.
func writeErr(c echo.Context, err error) error {
	var apiErr *coinrabbit.APIError
	switch {
	case errors.As(err, &apiErr):
		return c.JSON(apiErr.Status, ErrorResponse{Error: apiErr.Message})
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, loan.ErrForbidden):
		// Not distinguishing "absent" from "someone else's": no existence leak.
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, confirm.ErrInvalidPayoutAddress):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payout address for this network"})
	case errors.Is(err, confirm.ErrMissingCollateralAmount):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing collateral amount"})
	case errors.Is(err, deposit.ErrMissingDepositAddress):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "Missing deposit address after preflight"})
	case errors.Is(err, loans.ErrMissingAmount), errors.Is(err, loans.ErrBadPledgeRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, confirm.ErrInsufficientFunds):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Insufficient funds for collateral payment"})
	case errors.Is(err, confirm.ErrPaymentFailed):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment failed, please try again"})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
