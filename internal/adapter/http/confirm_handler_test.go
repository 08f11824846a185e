package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/testutil/crmock"
	"cryptolend-backend/internal/testutil/loanmock"
	"cryptolend-backend/internal/testutil/sessionmock"
	"cryptolend-backend/internal/usecase/confirm"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type resolverFunc func(ctx context.Context, token, loanID string) (string, bool, error)

func (f resolverFunc) EnsureActiveDepositAddress(ctx context.Context, token, loanID string) (string, bool, error) {
	return f(ctx, token, loanID)
}

type senderFunc func(ctx context.Context, req confirm.PaymentRequest) (string, error)

func (f senderFunc) Send(ctx context.Context, req confirm.PaymentRequest) (string, error) {
	return f(ctx, req)
}

func confirmEcho(repo *loanmock.Repo, api *crmock.API, resolver confirm.AddressResolver, payments confirm.PaymentSender) *echo.Echo {
	svc := confirm.NewService(repo, api, &sessionmock.Provider{}, resolver, payments, false, zap.NewNop())
	h := NewConfirmHandler(svc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(uidContextKey, "u-1")
			return next(c)
		}
	})
	e.POST("/api/loans/:loan_id/confirm", h.ConfirmLoan)
	e.POST("/api/loans/:loan_id/confirm-and-pay", h.ConfirmAndPay)
	return e
}

func confirmRepo() *loanmock.Repo {
	return &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*loan.Loan, error) {
			return &loan.Loan{LoanID: loanID, UID: "u-1", Phase: loan.PhaseDraft}, nil
		},
	}
}

const payoutAddr = "0x52908400098527886E0F7030069857D2E4169EE7"

func TestConfirmLoan_ReturnsRawPayload(t *testing.T) {
	raw := `{"response":{"id":"cr-1","status":"wait_deposit"}}`
	api := &crmock.API{
		ConfirmLoanFn: func(ctx context.Context, token, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error) {
			var p coinrabbit.Payload
			_ = json.Unmarshal([]byte(raw), &p)
			p.Raw = []byte(raw)
			return &p, nil
		},
	}
	e := confirmEcho(confirmRepo(), api, nil, nil)

	rec := request(e, http.MethodPost, "/api/loans/cr-1/confirm", `{"payout_address":"`+payoutAddr+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmLoan_MissingPayoutAddress(t *testing.T) {
	e := confirmEcho(confirmRepo(), &crmock.API{}, nil, nil)
	rec := request(e, http.MethodPost, "/api/loans/cr-1/confirm", `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}
}

func TestConfirmAndPay_FullResponse(t *testing.T) {
	api := &crmock.API{
		ValidateAddressFn: func(ctx context.Context, token string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error) {
			return &coinrabbit.ValidationResult{Valid: true}, nil
		},
		ConfirmLoanFn: func(ctx context.Context, token, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error) {
			return &coinrabbit.Payload{Response: &coinrabbit.Snapshot{
				Deposit: &coinrabbit.DepositState{ExpectedAmount: "100"},
			}}, nil
		},
		GetLoanFn: func(ctx context.Context, token, loanID string) (*coinrabbit.Payload, error) {
			return &coinrabbit.Payload{Response: &coinrabbit.Snapshot{Status: "wait_deposit"}}, nil
		},
	}
	resolver := resolverFunc(func(ctx context.Context, token, loanID string) (string, bool, error) {
		return "bc1qdep", true, nil
	})
	payments := senderFunc(func(ctx context.Context, req confirm.PaymentRequest) (string, error) {
		return "0xtx1", nil
	})
	e := confirmEcho(confirmRepo(), api, resolver, payments)

	rec := request(e, http.MethodPost, "/api/loans/cr-1/confirm-and-pay",
		`{"payout_address":"`+payoutAddr+`","borrow_code":"USDT","borrow_network":"ETH","chain_family":"evm"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		DepositAddress string `json:"deposit_address"`
		Refreshed      bool   `json:"refreshed"`
		TxID           string `json:"tx_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DepositAddress != "bc1qdep" || !out.Refreshed || out.TxID != "0xtx1" {
		t.Fatalf("response = %+v", out)
	}
}

func TestConfirmAndPay_UserRejectionIsCanceledNotError(t *testing.T) {
	api := &crmock.API{
		ValidateAddressFn: func(ctx context.Context, token string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error) {
			return &coinrabbit.ValidationResult{Valid: true}, nil
		},
		ConfirmLoanFn: func(ctx context.Context, token, loanID, payoutAddress string, ui *coinrabbit.UIMeta) (*coinrabbit.Payload, error) {
			return &coinrabbit.Payload{Response: &coinrabbit.Snapshot{
				Deposit: &coinrabbit.DepositState{ExpectedAmount: "100"},
			}}, nil
		},
	}
	resolver := resolverFunc(func(ctx context.Context, token, loanID string) (string, bool, error) {
		return "bc1qdep", false, nil
	})
	payments := senderFunc(func(ctx context.Context, req confirm.PaymentRequest) (string, error) {
		return "", confirm.ErrPaymentRejected
	})
	e := confirmEcho(confirmRepo(), api, resolver, payments)

	rec := request(e, http.MethodPost, "/api/loans/cr-1/confirm-and-pay",
		`{"payout_address":"`+payoutAddr+`","borrow_code":"USDT","borrow_network":"ETH","chain_family":"evm"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["canceled"] != true {
		t.Fatalf("response = %v", out)
	}
}

func TestConfirmAndPay_InvalidAddressIs400(t *testing.T) {
	api := &crmock.API{
		ValidateAddressFn: func(ctx context.Context, token string, req coinrabbit.ValidateAddressRequest) (*coinrabbit.ValidationResult, error) {
			return &coinrabbit.ValidationResult{Valid: false}, nil
		},
	}
	e := confirmEcho(confirmRepo(), api, nil, nil)

	rec := request(e, http.MethodPost, "/api/loans/cr-1/confirm-and-pay",
		`{"payout_address":"`+payoutAddr+`","borrow_code":"USDT","borrow_network":"ETH","chain_family":"evm"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
