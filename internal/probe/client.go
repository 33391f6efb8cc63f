package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vigilance/vanguard/internal/domain/model"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// Account is the linked account returned by /authorize.
type Account struct {
	UserID       string `json:"userId"`
	PlatformID   string `json:"platformId"`
	PlatformType int    `json:"platformType"`
	DisplayName  string `json:"displayName"`
}

// Client calls the vanguard HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// Authorize links an account from an authorization code.
func (c *Client) Authorize(ctx context.Context, code string) (Account, error) {
	var a Account
	if err := c.doRequest(ctx, http.MethodPost, "/authorize", map[string]string{"code": code}, &a); err != nil {
		return Account{}, fmt.Errorf("client.Authorize: %w", err)
	}
	return a, nil
}

// Characters lists the characters of userID.
func (c *Client) Characters(ctx context.Context, userID string) ([]model.Character, error) {
	var out []model.Character
	if err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/characters", &out); err != nil {
		return nil, fmt.Errorf("client.Characters: %w", err)
	}
	return out, nil
}

// Items fetches normalized items at location.
func (c *Client) Items(ctx context.Context, userID, characterID, location string) (model.NormalizeResult, error) {
	var out model.NormalizeResult
	path := characterPath(userID, characterID, "items") + "?location=" + url.QueryEscape(location)
	if err := c.get(ctx, path, &out); err != nil {
		return model.NormalizeResult{}, fmt.Errorf("client.Items: %w", err)
	}
	return out, nil
}

// Loadout fetches the equipped weapons and armor.
func (c *Client) Loadout(ctx context.Context, userID, characterID string) (model.Loadout, error) {
	var out model.Loadout
	if err := c.get(ctx, characterPath(userID, characterID, "loadout"), &out); err != nil {
		return model.Loadout{}, fmt.Errorf("client.Loadout: %w", err)
	}
	return out, nil
}

// Activities fetches activity summaries.
func (c *Client) Activities(ctx context.Context, userID, characterID string, mode, count int) ([]model.ActivitySummary, error) {
	params := url.Values{}
	params.Set("mode", strconv.Itoa(mode))
	params.Set("count", strconv.Itoa(count))

	var out []model.ActivitySummary
	if err := c.get(ctx, characterPath(userID, characterID, "activities")+"?"+params.Encode(), &out); err != nil {
		return nil, fmt.Errorf("client.Activities: %w", err)
	}
	return out, nil
}

// WeaponStats fetches per weapon type totals.
func (c *Client) WeaponStats(ctx context.Context, userID string, pve bool) ([]model.WeaponStatRecord, error) {
	var out []model.WeaponStatRecord
	path := "/users/" + url.PathEscape(userID) + "/weapon-stats?pve=" + strconv.FormatBool(pve)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("client.WeaponStats: %w", err)
	}
	return out, nil
}

func characterPath(userID, characterID, leaf string) string {
	return "/characters/" + url.PathEscape(userID) + "/" + url.PathEscape(characterID) + "/" + leaf
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= http.StatusBadRequest {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: readErr.Error()}
		}
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Code != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
