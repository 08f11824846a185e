package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPTokenVerifier resolves bearer tokens against the managed auth
// provider's tokeninfo endpoint.
type HTTPTokenVerifier struct {
	baseURL string
	http    *http.Client
}

func NewHTTPTokenVerifier(baseURL string) *HTTPTokenVerifier {
	return &HTTPTokenVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPTokenVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	body, _ := json.Marshal(map[string]string{"id_token": idToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/tokeninfo", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tokeninfo: HTTP %d", resp.StatusCode)
	}
	var out struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if out.UID == "" {
		return "", errors.New("tokeninfo: empty uid")
	}
	return out.UID, nil
}
