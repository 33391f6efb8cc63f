// Package gateway is the single door to the upstream game-data service. Every
// outbound call passes the shared throttle, carries the application key, and
// is bounded by a hard timeout.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vigilance/vanguard/internal/adapters/bungie/throttle"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	DefaultBaseURL      = "https://www.bungie.net"
	DefaultStatsBaseURL = "https://stats.bungie.net"
	DefaultTimeout      = 15 * time.Second
	DefaultWindowCap    = 18
	DefaultWindow       = 1500 * time.Millisecond

	maxErrorBody = 1 << 20
	successCode  = 1
)

// Outcome labels for the request counter.
const (
	outcomeOK        = "ok"
	outcomeUpstream  = "upstream_error"
	outcomeTransport = "transport_error"
)

// Envelope is the wrapper the platform puts around every payload.
type Envelope struct {
	Response        json.RawMessage `json:"Response"`
	ErrorCode       int             `json:"ErrorCode"`
	ThrottleSeconds int             `json:"ThrottleSeconds"`
	ErrorStatus     string          `json:"ErrorStatus"`
	Message         string          `json:"Message"`
}

// Client issues throttled requests to the platform.
type Client struct {
	http         *http.Client
	limiter      throttle.Limiter
	timeout      time.Duration
	apiKey       string
	clientID     string
	clientSecret string
	baseURL      string
	statsBaseURL string
	logger       logger.Logger
}

// New creates a gateway client. Without WithLimiter it uses a fixed window of
// 18 requests per 1.5s.
func New(opts ...Option) *Client {
	c := &Client{
		timeout:      DefaultTimeout,
		baseURL:      DefaultBaseURL,
		statsBaseURL: DefaultStatsBaseURL,
		logger:       logger.Get().Named("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = throttle.NewWindow(DefaultWindowCap, DefaultWindow)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	c.http.Timeout = c.timeout
	return c
}

// Get issues a throttled GET and returns the raw body of a 2xx reply. An empty
// token sends only the application key; otherwise the bearer token is added.
func (c *Client) Get(ctx context.Context, url, token, label string) (json.RawMessage, error) {
	reqID := uuid.NewString()
	log := c.logger.With(logger.String("request_id", reqID), logger.String("label", label))

	if err := c.limiter.Acquire(ctx); err != nil {
		metrics.RecordGatewayRequest(label, outcomeTransport)
		return nil, &TransportError{Label: label, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Label: label, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	body, err := c.do(ctx, log, req, label, token != "")
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetResponse issues Get and decodes the envelope's Response member into dst.
// A 2xx reply whose envelope carries a failure code is an UpstreamError.
func (c *Client) GetResponse(ctx context.Context, url, token, label string, dst any) error {
	body, err := c.Get(ctx, url, token, label)
	if err != nil {
		return err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: %w: %w", label, ErrDecode, err)
	}
	if env.ErrorCode > successCode {
		return &UpstreamError{
			Label:       label,
			Status:      http.StatusOK,
			ErrorCode:   env.ErrorCode,
			ErrorStatus: env.ErrorStatus,
			Message:     env.Message,
		}
	}
	if dst == nil || len(env.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Response, dst); err != nil {
		return fmt.Errorf("%s: %w: %w", label, ErrDecode, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, log logger.Logger, req *http.Request, label string, scoped bool) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordGatewayLatency(label, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordGatewayRequest(label, outcomeTransport)
		log.Warn(ctx, "upstream transport failure", logger.Error(err))
		return nil, &TransportError{Label: label, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordGatewayRequest(label, outcomeUpstream)
		upErr := decodeUpstreamError(resp, label)
		upErr.stale = scoped && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden)
		log.Warn(ctx, "upstream rejected request",
			logger.Int("status", resp.StatusCode),
			logger.String("error_status", upErr.ErrorStatus),
			logger.String("message", upErr.Message),
		)
		return nil, upErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordGatewayRequest(label, outcomeTransport)
		log.Warn(ctx, "reading upstream body failed", logger.Error(err))
		return nil, &TransportError{Label: label, Err: fmt.Errorf("read body: %w", err)}
	}
	metrics.RecordGatewayRequest(label, outcomeOK)
	log.Debug(ctx, "upstream request done",
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// decodeUpstreamError reads a platform error body. Both the envelope form
// ({ErrorCode, ErrorStatus, Message}) and the OAuth form ({error,
// error_description}) are understood; anything else is kept verbatim.
func decodeUpstreamError(resp *http.Response, label string) *UpstreamError {
	e := &UpstreamError{Label: label, Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		e.Message = "failed to read body: " + err.Error()
		return e
	}

	var body struct {
		ErrorCode        int    `json:"ErrorCode"`
		ErrorStatus      string `json:"ErrorStatus"`
		Message          string `json:"Message"`
		OAuthError       string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(raw, &body) != nil {
		e.Message = string(raw)
		return e
	}
	e.ErrorCode = body.ErrorCode
	e.ErrorStatus = body.ErrorStatus
	e.Message = body.Message
	if e.ErrorStatus == "" && body.OAuthError != "" {
		e.ErrorStatus = body.OAuthError
	}
	if e.Message == "" {
		e.Message = body.ErrorDescription
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode) + " (" + strconv.Itoa(resp.StatusCode) + ")"
	}
	return e
}
