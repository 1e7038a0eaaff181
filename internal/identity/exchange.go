package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Skotchmaster/shops_api/internal/apperr"
)

type ExchangeRequest struct {
	Token             string `json:"token"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type ExchangeResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn,omitempty"`
	LocalID      string `json:"localId,omitempty"`
}

type exchangeError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TokenExchanger calls the provider's signInWithCustomToken endpoint.
type TokenExchanger struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewTokenExchanger(endpoint, apiKey string, timeout time.Duration) *TokenExchanger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TokenExchanger{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (x *TokenExchanger) url() (string, error) {
	u, err := url.Parse(x.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse token endpoint: %w", err)
	}
	if x.apiKey != "" {
		q := u.Query()
		q.Set("key", x.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (x *TokenExchanger) Exchange(ctx context.Context, customToken string) (*ExchangeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	target, err := x.url()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(ExchangeRequest{Token: customToken, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e exchangeError
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			return nil, fmt.Errorf("%w: exchange failed with status %d: %s", apperr.ErrUpstream, resp.StatusCode, e.Error.Message)
		}
		return nil, fmt.Errorf("%w: exchange failed with status %d", apperr.ErrUpstream, resp.StatusCode)
	}

	var result ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperr.ErrUpstream, err)
	}
	return &result, nil
}
