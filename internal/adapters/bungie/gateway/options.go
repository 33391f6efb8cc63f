package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/vigilance/vanguard/internal/adapters/bungie/throttle"
	"github.com/vigilance/vanguard/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithLimiter sets the throttle shared by every call.
func WithLimiter(l throttle.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAPIKey sets the application key sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithClientCredentials sets the OAuth client used for token exchange.
func WithClientCredentials(id, secret string) Option {
	return func(c *Client) {
		c.clientID = id
		c.clientSecret = secret
	}
}

// WithBaseURL overrides the platform base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithStatsBaseURL overrides the host serving post-game reports.
func WithStatsBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.statsBaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten by the configured call timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
