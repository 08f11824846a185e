package http

import (
	"net/http"
	"net/url"

	"cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/usecase/loans"

	"github.com/labstack/echo/v4"
)

// PledgeHandler covers the increase-collateral and close-loan (pledge
// redemption) passthrough routes.
type PledgeHandler struct {
	loans *loans.Service
}

func NewPledgeHandler(svc *loans.Service) *PledgeHandler { return &PledgeHandler{loans: svc} }

func (h *PledgeHandler) IncreaseEstimate(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	payload, err := h.loans.IncreaseEstimate(c.Request().Context(), middleware.UID(c), loanID, c.QueryParam("amount"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

type createIncreaseReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *PledgeHandler) CreateIncrease(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	var req createIncreaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payload, err := h.loans.CreateIncrease(c.Request().Context(), middleware.UID(c), loanID, req.Amount)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

type fallbackTxReq struct {
	Hash string `json:"hash" validate:"required"`
}

func (h *PledgeHandler) SaveIncreaseFallbackTx(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	var req fallbackTxReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payload, err := h.loans.SaveIncreaseFallbackTx(c.Request().Context(), middleware.UID(c), loanID, req.Hash)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

func (h *PledgeHandler) PledgeEstimate(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	params := url.Values{}
	for k, vs := range c.QueryParams() {
		params[k] = vs
	}
	payload, err := h.loans.PledgeEstimate(c.Request().Context(), middleware.UID(c), loanID, params)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

type pledgeReq struct {
	Address        string  `json:"address"          validate:"required,chainaddr"`
	ExtraID        *string `json:"extra_id"`
	ReceiveFrom    string  `json:"receive_from"     validate:"required"`
	RepayByNetwork string  `json:"repay_by_network" validate:"required,asset"`
	RepayByCode    string  `json:"repay_by_code"    validate:"required,asset"`
}

func (h *PledgeHandler) CreatePledgeRedemption(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	var req pledgeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payload, err := h.loans.CreatePledgeRedemption(c.Request().Context(), middleware.UID(c), loanID, coinrabbit.PledgeRedemptionRequest{
		Address:        req.Address,
		ExtraID:        req.ExtraID,
		ReceiveFrom:    req.ReceiveFrom,
		RepayByNetwork: req.RepayByNetwork,
		RepayByCode:    req.RepayByCode,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}
