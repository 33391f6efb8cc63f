package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// TokenResponse is the reply of the OAuth token endpoint.
type TokenResponse struct {
	MembershipID     string `json:"membership_id"`
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	return c.token(ctx, form, "token exchange")
}

// RefreshToken trades a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)
	return c.token(ctx, form, "token refresh")
}

func (c *Client) token(ctx context.Context, form url.Values, label string) (TokenResponse, error) {
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	log := c.logger.With(logger.String("request_id", uuid.NewString()), logger.String("label", label))

	if err := c.limiter.Acquire(ctx); err != nil {
		metrics.RecordGatewayRequest(label, outcomeTransport)
		return TokenResponse{}, &TransportError{Label: label, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, &TransportError{Label: label, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-API-Key", c.apiKey)

	body, err := c.do(ctx, log, req, label, false)
	if err != nil {
		if IsStatus(err, http.StatusBadRequest) || IsStatus(err, http.StatusUnauthorized) {
			return TokenResponse{}, fmt.Errorf("%w: %w", ErrStaleAuth, err)
		}
		return TokenResponse{}, err
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TokenResponse{}, fmt.Errorf("%s: %w: %w", label, ErrDecode, err)
	}
	return tr, nil
}
