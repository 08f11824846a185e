package http

import (
	"errors"
	"net/http"

	"cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/usecase/confirm"

	"github.com/labstack/echo/v4"
)

type ConfirmHandler struct {
	confirm *confirm.Service
}

func NewConfirmHandler(svc *confirm.Service) *ConfirmHandler {
	return &ConfirmHandler{confirm: svc}
}

type uiMetaSideReq struct {
	Code    *string `json:"code"`
	Network *string `json:"network"`
	Logo    *string `json:"logo"`
}

type uiMetaReq struct {
	Borrow     uiMetaSideReq `json:"borrow"`
	Collateral uiMetaSideReq `json:"collateral"`
}

func (u *uiMetaReq) toMeta() *coinrabbit.UIMeta {
	if u == nil {
		return nil
	}
	return &coinrabbit.UIMeta{
		Borrow:     coinrabbit.UIMetaSide(u.Borrow),
		Collateral: coinrabbit.UIMetaSide(u.Collateral),
	}
}

type confirmReq struct {
	PayoutAddress string     `json:"payout_address" validate:"required,chainaddr"`
	UI            *uiMetaReq `json:"ui"`
}

// ConfirmLoan is the confirm-only route: processor confirm + local merge
// write + audit event. Payment stays on the client.
func (h *ConfirmHandler) ConfirmLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payload, err := h.confirm.Confirm(c.Request().Context(), middleware.UID(c), loanID, req.PayoutAddress, req.UI.toMeta())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

type confirmAndPayReq struct {
	PayoutAddress        string     `json:"payout_address" validate:"required,chainaddr"`
	BorrowCode           string     `json:"borrow_code"    validate:"required,asset"`
	BorrowNetwork        string     `json:"borrow_network" validate:"required,asset"`
	Tag                  *string    `json:"tag"`
	ChainFamily          string     `json:"chain_family"   validate:"required"`
	EstimateAmountAtomic string     `json:"estimate_amount_atomic"`
	UI                   *uiMetaReq `json:"ui"`
}

type confirmAndPayResp struct {
	DepositAddress string `json:"deposit_address"`
	Refreshed      bool   `json:"refreshed"`
	TxID           string `json:"tx_id"`
	Confirm        any    `json:"confirm,omitempty"`
	FreshLoan      any    `json:"fresh_loan,omitempty"`
}

func (h *ConfirmHandler) ConfirmAndPay(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	var req confirmAndPayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	res, err := h.confirm.ConfirmAndPay(c.Request().Context(), confirm.Input{
		UID:                  middleware.UID(c),
		LoanID:               loanID,
		PayoutAddress:        req.PayoutAddress,
		BorrowCode:           req.BorrowCode,
		BorrowNetwork:        req.BorrowNetwork,
		Tag:                  req.Tag,
		ChainFamily:          req.ChainFamily,
		EstimateAmountAtomic: req.EstimateAmountAtomic,
		UI:                   req.UI.toMeta(),
	})
	// The user backing out in the wallet is not an error to banner.
	if errors.Is(err, confirm.ErrPaymentRejected) {
		return c.JSON(http.StatusOK, map[string]any{"canceled": true})
	}
	if err != nil {
		return writeErr(c, err)
	}

	out := confirmAndPayResp{
		DepositAddress: res.DepositAddress,
		Refreshed:      res.Refreshed,
		TxID:           res.TxID,
	}
	if res.Confirm != nil {
		out.Confirm = res.Confirm
	}
	if res.FreshLoan != nil {
		out.FreshLoan = res.FreshLoan
	}
	return c.JSON(http.StatusOK, out)
}
