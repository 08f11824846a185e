package http

import (
	"net/http"

	"cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/usecase/loans"
	"cryptolend-backend/internal/usecase/sync"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	loans *loans.Service
	sync  *sync.Service
}

func NewLoanHandler(loansSvc *loans.Service, syncSvc *sync.Service) *LoanHandler {
	return &LoanHandler{loans: loansSvc, sync: syncSvc}
}

type createLoanReq struct {
	FromCode    string `json:"from_code"    validate:"required,asset"`
	FromNetwork string `json:"from_network" validate:"required,asset"`
	ToCode      string `json:"to_code"      validate:"required,asset"`
	ToNetwork   string `json:"to_network"   validate:"required,asset"`
	Amount      string `json:"amount"       validate:"required,amount"`
	LTV         string `json:"ltv_percent"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payload, err := h.loans.Create(c.Request().Context(), middleware.UID(c), coinrabbit.CreateLoanRequest{
		FromCode:    req.FromCode,
		FromNetwork: req.FromNetwork,
		ToCode:      req.ToCode,
		ToNetwork:   req.ToNetwork,
		Amount:      req.Amount,
		LTV:         req.LTV,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusCreated, payload.Raw)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	recs, err := h.loans.List(c.Request().Context(), middleware.UID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": recs})
}

// GetLoan is the sync route: read the processor, reconcile the stored
// record, return the raw upstream payload either way.
func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	payload, err := h.sync.ReconcileAndPersist(c.Request().Context(), middleware.UID(c), loanID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

// GetLoanRecord returns the locally persisted record (last-known-good data).
func (h *LoanHandler) GetLoanRecord(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	rec, err := h.loans.Get(c.Request().Context(), middleware.UID(c), loanID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *LoanHandler) RefreshDepositAddress(c echo.Context) error {
	loanID := c.Param("loan_id")
	if !validLoanID(loanID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid loan_id"})
	}
	payload, err := h.loans.RefreshDepositAddress(c.Request().Context(), middleware.UID(c), loanID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload.Raw)
}

type validateAddressReq struct {
	Address string  `json:"address" validate:"required,chainaddr"`
	Code    string  `json:"code"    validate:"required,asset"`
	Network string  `json:"network" validate:"required,asset"`
	Tag     *string `json:"tag"`
}

func (h *LoanHandler) ValidateAddress(c echo.Context) error {
	var req validateAddressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	res, err := h.loans.ValidateAddress(c.Request().Context(), middleware.UID(c), coinrabbit.ValidateAddressRequest{
		Address: req.Address,
		Code:    req.Code,
		Network: req.Network,
		Tag:     req.Tag,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
