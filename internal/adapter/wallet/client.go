package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptolend-backend/internal/usecase/confirm"
)

// Client submits collateral payments through the wallet bridge, the service
// holding the signing capability. Payment submission blocks on user approval
// in the wallet, so no client-side timeout is set on the approval itself;
// cancellation comes from ctx.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Long timeout: the bridge holds the request open while the user
		// approves or rejects in their wallet.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

type sendRequest struct {
	Chain        string `json:"chain"`
	Recipient    string `json:"recipient"`
	AmountAtomic string `json:"amount_atomic"`
}

type sendResponse struct {
	TxID    string `json:"tx_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, req confirm.PaymentRequest) (string, error) {
	body, err := json.Marshal(sendRequest{
		Chain:        req.Chain,
		Recipient:    req.Recipient,
		AmountAtomic: req.AmountAtomic,
	})
	if err != nil {
		return "", err
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", confirm.ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", confirm.ErrPaymentFailed, err)
	}

	var out sendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out.TxID == "" {
			return "", fmt.Errorf("%w: bridge returned no tx id", confirm.ErrPaymentFailed)
		}
		return out.TxID, nil
	}

	switch out.Code {
	case "user_rejected":
		return "", confirm.ErrPaymentRejected
	case "insufficient_funds":
		return "", confirm.ErrInsufficientFunds
	}
	if out.Message != "" {
		return "", fmt.Errorf("%w: %s", confirm.ErrPaymentFailed, out.Message)
	}
	return "", fmt.Errorf("%w: HTTP %d", confirm.ErrPaymentFailed, resp.StatusCode)
}
