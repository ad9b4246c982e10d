package drupalkit

import (
	"log/slog"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

// Option configures a Client.
type Option func(*Client)

// WithConsumerID sends id as X-Consumer-ID on every request.
func WithConsumerID(id string) Option {
	return func(c *Client) {
		c.consumerID = id
	}
}

// WithHTTPClient sets the transport used to send requests.
func WithHTTPClient(httpClient httpclient.HTTPClient) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBeforeRequest registers a hook that runs before each request is sent.
func WithBeforeRequest(fn BeforeRequestFunc) Option {
	return func(c *Client) {
		c.beforeRequest = append(c.beforeRequest, fn)
	}
}

// WithAfterRequest registers a hook that runs on each response.
func WithAfterRequest(fn AfterRequestFunc) Option {
	return func(c *Client) {
		c.afterRequest = append(c.afterRequest, fn)
	}
}

// WithAuthStrategy sets the initial auth strategy.
func WithAuthStrategy(strategy auth.Strategy) Option {
	return func(c *Client) {
		c.slot.Set(strategy)
	}
}
