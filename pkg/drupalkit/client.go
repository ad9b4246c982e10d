// Package drupalkit is a client for Drupal sites.
//
// A Client sends requests relative to a site's base URL, tags them with an
// optional consumer id and authenticates them through a pluggable
// auth.Strategy:
//
//	client := drupalkit.New("https://example.com", drupalkit.WithConsumerID("my-app"))
//	client.SetAuthStrategy(simpleoauth.NewClientCredentialsStrategy(id, secret, []string{"content"}))
//
//	node, err := httpclient.ExecuteJSON[Node](ctx, client, http.MethodGet, "/jsonapi/node/article/1", nil)
//
// Clones share the strategy, so a token fetched through one clone is reused by
// all of them. Concurrent requests fetch a token at most once.
package drupalkit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
	"github.com/drupalkit/drupalkit/pkg/simpleoauth"
)

const (
	// ConsumerIDHeader carries the consumer id on every request.
	ConsumerIDHeader = "X-Consumer-ID"

	// DefaultTimeout is the timeout of the default HTTP client.
	DefaultTimeout = 30 * time.Second
)

// BeforeRequestFunc runs on every request that does not skip hooks, after
// the consumer id and authentication have been applied.
type BeforeRequestFunc func(req *http.Request, path string, opts *httpclient.RequestOptions) (*http.Request, error)

// AfterRequestFunc runs on every response of a request that does not skip hooks.
type AfterRequestFunc func(resp *http.Response) (*http.Response, error)

// Client sends requests to a Drupal site.
type Client struct {
	baseURL    string
	consumerID string
	httpClient httpclient.HTTPClient
	logger     *slog.Logger

	slot *auth.Slot

	beforeRequest []BeforeRequestFunc
	afterRequest  []AfterRequestFunc
}

// New creates a client for the site at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		slot:       auth.NewSlot(nil),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the site's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ConsumerID returns the consumer id, or "" if none is configured.
func (c *Client) ConsumerID() string {
	return c.consumerID
}

// SetAuthStrategy replaces the auth strategy of c and all of its clones.
// A nil strategy disables authentication.
func (c *Client) SetAuthStrategy(strategy auth.Strategy) {
	c.slot.Set(strategy)
}

// AuthStrategy returns the current auth strategy or nil.
func (c *Client) AuthStrategy() auth.Strategy {
	return c.slot.Strategy()
}

// Clone returns a copy of c that shares its auth strategy.
func (c *Client) Clone() *Client {
	clone := *c
	clone.beforeRequest = append([]BeforeRequestFunc(nil), c.beforeRequest...)
	clone.afterRequest = append([]AfterRequestFunc(nil), c.afterRequest...)
	return &clone
}

// Execute sends a request to path relative to the base URL.
func (c *Client) Execute(ctx context.Context, method, path string, body io.Reader, opts ...httpclient.RequestOption) (*http.Response, error) {
	p := &httpclient.Pipeline{
		Client:  c.httpClient,
		BaseURL: c.baseURL,
		Hooks:   c,
	}
	return p.Execute(ctx, method, path, body, opts...)
}

// RequestToken requests a token from the site's token endpoint.
// The request is never authenticated by the client's strategy.
func (c *Client) RequestToken(ctx context.Context, grant simpleoauth.Grant, opts ...httpclient.RequestOption) (*simpleoauth.TokenResponse, error) {
	return simpleoauth.RequestToken(ctx, c, grant, opts...)
}

// BeforeRequest tags req with the consumer id, authenticates it unless it is
// anonymous and then runs the registered before hooks.
func (c *Client) BeforeRequest(req *http.Request, path string, opts *httpclient.RequestOptions) (*http.Request, error) {
	if c.consumerID != "" {
		req.Header.Set(ConsumerIDHeader, c.consumerID)
	}

	if !opts.Anonymous {
		decorated, err := c.slot.Decorate(req.Context(), req, path, opts, c)
		if err != nil {
			c.logger.Debug("Request authentication failed",
				"method", req.Method,
				"path", path,
				"error", err)
			return nil, err
		}
		req = decorated
	}

	for _, hook := range c.beforeRequest {
		next, err := hook(req, path, opts)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, &httpclient.RequestError{Err: httpclient.ErrNoRequest}
		}
		req = next
	}

	return req, nil
}

// AfterRequest runs the registered after hooks.
func (c *Client) AfterRequest(resp *http.Response) (*http.Response, error) {
	for _, hook := range c.afterRequest {
		next, err := hook(resp)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, httpclient.ErrNoResponse
		}
		resp = next
	}
	return resp, nil
}
