package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cryptolend-backend/internal/usecase/confirm"
)

func bridge(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestSend_Success(t *testing.T) {
	c := bridge(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in struct {
			Chain        string `json:"chain"`
			Recipient    string `json:"recipient"`
			AmountAtomic string `json:"amount_atomic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.Chain != "evm" || in.Recipient != "bc1qdep" || in.AmountAtomic != "150000000" {
			t.Fatalf("request = %+v", in)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"tx_id": "0xtx9"})
	})

	txID, err := c.Send(context.Background(), confirm.PaymentRequest{
		Chain: "evm", Recipient: "bc1qdep", AmountAtomic: "150000000",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if txID != "0xtx9" {
		t.Fatalf("tx id = %q", txID)
	}
}

func TestSend_ClassifiesBridgeErrors(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"user_rejected", confirm.ErrPaymentRejected},
		{"insufficient_funds", confirm.ErrInsufficientFunds},
		{"rpc_unreachable", confirm.ErrPaymentFailed},
	}
	for _, tc := range cases {
		c := bridge(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": tc.code, "message": "nope"})
		})
		_, err := c.Send(context.Background(), confirm.PaymentRequest{Chain: "evm", Recipient: "x", AmountAtomic: "1"})
		if !errors.Is(err, tc.want) {
			t.Errorf("code %q: want %v, got %v", tc.code, tc.want, err)
		}
	}
}

func TestSend_OKWithoutTxIDFails(t *testing.T) {
	c := bridge(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})
	_, err := c.Send(context.Background(), confirm.PaymentRequest{Chain: "evm", Recipient: "x", AmountAtomic: "1"})
	if !errors.Is(err, confirm.ErrPaymentFailed) {
		t.Fatalf("want ErrPaymentFailed, got %v", err)
	}
}

func TestSend_PlainServerErrorWrapsFailed(t *testing.T) {
	c := bridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Send(context.Background(), confirm.PaymentRequest{Chain: "evm", Recipient: "x", AmountAtomic: "1"})
	if !errors.Is(err, confirm.ErrPaymentFailed) {
		t.Fatalf("want ErrPaymentFailed, got %v", err)
	}
}
