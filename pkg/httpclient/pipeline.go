// Package httpclient implements the request pipeline shared by all API clients.
//
// A Pipeline resolves the request URL, merges per-call headers, runs the
// before hook, sends the request through an HTTPClient and runs the after
// hook. Hooks are where authentication and other client-wide decoration
// happen; the pipeline itself knows nothing about credentials.
//
// # Request Options
//
//   - Header: add or override one header
//   - BaseURL: send this request to a different base URL
//   - SkipHooks: bypass BeforeRequest and AfterRequest entirely
//   - Anonymous: ask the hooks not to authenticate this request
//
// # Example
//
//	p := &httpclient.Pipeline{
//	    Client:  http.DefaultClient,
//	    BaseURL: "https://example.com",
//	}
//
//	node, err := httpclient.ExecuteJSON[Node](ctx, p, http.MethodGet, "/jsonapi/node/1", nil)
//	var failed *httpclient.FailedRequest
//	if errors.As(err, &failed) {
//	    // inspect failed.Response
//	}
package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// HTTPClient is an interface for sending HTTP requests.
// *http.Client satisfies it.
type HTTPClient interface {
	// Do executes an HTTP request.
	Do(req *http.Request) (*http.Response, error)
}

// Executor executes requests relative to a base URL.
type Executor interface {
	Execute(ctx context.Context, method, path string, body io.Reader, opts ...RequestOption) (*http.Response, error)
}

// Hooks alter requests before they are sent and responses after they are received.
type Hooks interface {
	// BeforeRequest may modify or replace the request. An error aborts the call.
	BeforeRequest(req *http.Request, path string, opts *RequestOptions) (*http.Request, error)
	// AfterRequest may modify or replace a successful response.
	AfterRequest(resp *http.Response) (*http.Response, error)
}

// NopHooks leaves requests and responses untouched.
type NopHooks struct{}

// BeforeRequest returns req unchanged.
func (NopHooks) BeforeRequest(req *http.Request, _ string, _ *RequestOptions) (*http.Request, error) {
	return req, nil
}

// AfterRequest returns resp unchanged.
func (NopHooks) AfterRequest(resp *http.Response) (*http.Response, error) {
	return resp, nil
}

// Pipeline executes single requests. It is safe for concurrent use as long
// as its Client and Hooks are.
type Pipeline struct {
	// Client sends the requests. http.DefaultClient is used when nil.
	Client HTTPClient
	// BaseURL is prepended to every request path unless overridden per call.
	BaseURL string
	// Hooks decorate requests and responses. NopHooks is used when nil.
	Hooks Hooks
}

// Execute sends one request and returns the (possibly hook-modified) response.
// No retries are attempted.
func (p *Pipeline) Execute(ctx context.Context, method, path string, body io.Reader, opts ...RequestOption) (*http.Response, error) {
	options := NewRequestOptions(opts...)

	baseURL := p.BaseURL
	if options.BaseURL != "" {
		baseURL = options.BaseURL
	}

	req, err := http.NewRequestWithContext(ctx, method, JoinURL(baseURL, path), body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	for name, values := range options.Headers {
		req.Header[name] = append([]string(nil), values...)
	}

	hooks := p.hooks()

	if !options.SkipHooks {
		req, err = hooks.BeforeRequest(req, path, options)
		if err != nil {
			return nil, err
		}
		if req == nil {
			return nil, &RequestError{Err: ErrNoRequest}
		}
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !options.SkipHooks {
		altered, err := hooks.AfterRequest(resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		if altered == nil {
			_ = resp.Body.Close()
			return nil, ErrNoResponse
		}
		return altered, nil
	}

	return resp, nil
}

func (p *Pipeline) client() HTTPClient {
	if p.Client == nil {
		return http.DefaultClient
	}
	return p.Client
}

func (p *Pipeline) hooks() Hooks {
	if p.Hooks == nil {
		return NopHooks{}
	}
	return p.Hooks
}

// JoinURL appends path to baseURL with exactly one slash between them.
func JoinURL(baseURL, path string) string {
	if path == "" {
		return baseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
