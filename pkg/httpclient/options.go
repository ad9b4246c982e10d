package httpclient

import "net/http"

// RequestOptions is the evaluated set of per-call modifiers.
// It is built once per call and never persisted.
type RequestOptions struct {
	// Headers are added to the outgoing request, overriding defaults.
	Headers http.Header
	// BaseURL overrides the pipeline base URL when non-empty.
	BaseURL string
	// SkipHooks disables BeforeRequest and AfterRequest for this call.
	SkipHooks bool
	// Anonymous asks the hooks not to authenticate this call.
	Anonymous bool
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// NewRequestOptions evaluates opts in order.
func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	o := &RequestOptions{
		Headers: make(http.Header),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return o
}

// Header adds a header with name and value to the request.
// A later Header option with the same name wins.
func Header(name, value string) RequestOption {
	return func(o *RequestOptions) {
		o.Headers.Set(name, value)
	}
}

// BaseURL overrides the base URL for the request.
func BaseURL(url string) RequestOption {
	return func(o *RequestOptions) {
		o.BaseURL = url
	}
}

// SkipHooks disables the before and after hooks for the request.
// Hooks that issue requests of their own use this to avoid re-entering themselves.
func SkipHooks() RequestOption {
	return func(o *RequestOptions) {
		o.SkipHooks = true
	}
}

// Anonymous marks the request as not to be authenticated.
func Anonymous() RequestOption {
	return func(o *RequestOptions) {
		o.Anonymous = true
	}
}
