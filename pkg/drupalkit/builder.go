package drupalkit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Builder assembles a Client step by step.
type Builder struct {
	baseURL    string
	consumerID string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	opts       []Option
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetBaseURL sets the site's base URL. It is required.
func (b *Builder) SetBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// SetConsumerID sets the consumer id.
func (b *Builder) SetConsumerID(id string) *Builder {
	b.consumerID = id
	return b
}

// SetHTTPClient sets the HTTP client. The builder never modifies it.
func (b *Builder) SetHTTPClient(httpClient *http.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// SetTimeout sets the request timeout of the HTTP client.
func (b *Builder) SetTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// SetLogger sets the client's logger.
func (b *Builder) SetLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// AddOptions appends client options applied after the builder's own settings.
func (b *Builder) AddOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build creates the client.
func (b *Builder) Build() (*Client, error) {
	if b.baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := &http.Client{Timeout: DefaultTimeout}
	if b.httpClient != nil {
		clientCopy := *b.httpClient
		httpClient = &clientCopy
	}
	if b.timeout > 0 {
		httpClient.Timeout = b.timeout
	}

	opts := []Option{WithHTTPClient(httpClient), WithLogger(b.logger)}
	if b.consumerID != "" {
		opts = append(opts, WithConsumerID(b.consumerID))
	}
	opts = append(opts, b.opts...)

	return New(b.baseURL, opts...), nil
}
