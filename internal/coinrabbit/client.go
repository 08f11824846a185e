package coinrabbit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API is the surface of the loan processor this service consumes. Every call
// except CreateUserToken carries a per-user token.
type API interface {
	CreateUserToken(ctx context.Context) (string, error)

	GetLoan(ctx context.Context, token, loanID string) (*Payload, error)
	CreateLoan(ctx context.Context, token string, req CreateLoanRequest) (*Payload, error)
	ConfirmLoan(ctx context.Context, token, loanID, payoutAddress string, ui *UIMeta) (*Payload, error)
	ValidateAddress(ctx context.Context, token string, req ValidateAddressRequest) (*ValidationResult, error)
	RefreshDepositAddress(ctx context.Context, token, loanID string) (*Payload, error)

	IncreaseEstimate(ctx context.Context, token, loanID, amount string) (*Payload, error)
	CreateIncrease(ctx context.Context, token, loanID, amount string) (*Payload, error)
	SaveIncreaseFallbackTx(ctx context.Context, token, loanID, hash string) (*Payload, error)

	PledgeEstimate(ctx context.Context, token, loanID string, params url.Values) (*Payload, error)
	CreatePledgeRedemption(ctx context.Context, token, loanID string, req PledgeRedemptionRequest) (*Payload, error)
}

// APIError is a non-2xx processor response.
type APIError struct {
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinrabbit: HTTP %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("x-user-token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg, Body: raw}
	}
	return raw, nil
}

func (c *Client) doPayload(ctx context.Context, method, path, token string, body any) (*Payload, error) {
	raw, err := c.do(ctx, method, path, token, body)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("coinrabbit: invalid JSON response: %w", err)
	}
	p.Raw = raw
	return &p, nil
}

func (c *Client) CreateUserToken(ctx context.Context) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/users/token", "", struct{}{})
	if err != nil {
		return "", err
	}
	var out struct {
		Response struct {
			Token string `json:"token"`
		} `json:"response"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("coinrabbit: invalid token response: %w", err)
	}
	if out.Response.Token != "" {
		return out.Response.Token, nil
	}
	if out.Token == "" {
		return "", fmt.Errorf("coinrabbit: token response missing token")
	}
	return out.Token, nil
}

func (c *Client) GetLoan(ctx context.Context, token, loanID string) (*Payload, error) {
	return c.doPayload(ctx, http.MethodGet, "/v1/loans/"+url.PathEscape(loanID), token, nil)
}

func (c *Client) CreateLoan(ctx context.Context, token string, req CreateLoanRequest) (*Payload, error) {
	return c.doPayload(ctx, http.MethodPost, "/v1/loans", token, req)
}

func (c *Client) ConfirmLoan(ctx context.Context, token, loanID, payoutAddress string, ui *UIMeta) (*Payload, error) {
	body := map[string]any{"payout_address": payoutAddress}
	if ui != nil {
		body["ui"] = ui
	}
	return c.doPayload(ctx, http.MethodPost, "/v1/loans/"+url.PathEscape(loanID)+"/confirm", token, body)
}

func (c *Client) ValidateAddress(ctx context.Context, token string, req ValidateAddressRequest) (*ValidationResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/addresses/validate", token, req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Response *ValidationResult `json:"response"`
		Valid    *bool             `json:"valid"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("coinrabbit: invalid validation response: %w", err)
	}
	if out.Response != nil {
		return out.Response, nil
	}
	if out.Valid != nil {
		return &ValidationResult{Valid: *out.Valid}, nil
	}
	return &ValidationResult{Valid: false}, nil
}

func (c *Client) RefreshDepositAddress(ctx context.Context, token, loanID string) (*Payload, error) {
	return c.doPayload(ctx, http.MethodPost, "/v1/loans/"+url.PathEscape(loanID)+"/deposit", token, struct{}{})
}

func (c *Client) IncreaseEstimate(ctx context.Context, token, loanID, amount string) (*Payload, error) {
	q := url.Values{"amount": {amount}}
	return c.doPayload(ctx, http.MethodGet,
		"/v1/loans/"+url.PathEscape(loanID)+"/increase/estimate?"+q.Encode(), token, nil)
}

func (c *Client) CreateIncrease(ctx context.Context, token, loanID, amount string) (*Payload, error) {
	body := map[string]any{"deposit": map[string]string{"amount": strings.TrimSpace(amount)}}
	return c.doPayload(ctx, http.MethodPost, "/v1/loans/"+url.PathEscape(loanID)+"/increase", token, body)
}

func (c *Client) SaveIncreaseFallbackTx(ctx context.Context, token, loanID, hash string) (*Payload, error) {
	body := map[string]string{"hash": strings.TrimSpace(hash)}
	return c.doPayload(ctx, http.MethodPut, "/v1/loans/"+url.PathEscape(loanID)+"/increase/fallback-tx", token, body)
}

func (c *Client) PledgeEstimate(ctx context.Context, token, loanID string, params url.Values) (*Payload, error) {
	path := "/v1/loans/" + url.PathEscape(loanID) + "/pledge/estimate"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.doPayload(ctx, http.MethodGet, path, token, nil)
}

func (c *Client) CreatePledgeRedemption(ctx context.Context, token, loanID string, req PledgeRedemptionRequest) (*Payload, error) {
	return c.doPayload(ctx, http.MethodPost, "/v1/loans/"+url.PathEscape(loanID)+"/pledge", token, req)
}
