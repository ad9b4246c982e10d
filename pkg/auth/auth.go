// Package auth provides pluggable authentication strategies for API clients.
//
// A Strategy decorates an outgoing request with credentials right before it
// is sent. Strategies are attached to a client through a Slot, which
// serializes every Decorate call client-wide: stateful strategies such as
// OAuth2 client credentials can therefore cache a token without further
// locking, and concurrent callers never fetch the same token twice.
//
// # Built-in Strategies
//
//   - Basic: HTTP Basic authentication with a username and optional password
//   - Bearer: a fixed bearer token
//   - Client Credentials: OAuth2 token fetched and cached on demand (package simpleoauth)
//
// Any type implementing Decorate can be attached; StrategyFunc adapts a
// plain function.
//
// # Example: Basic Authentication
//
//	client := drupalkit.New("https://example.com")
//	client.SetAuthStrategy(auth.NewBasicStrategy("alice", "s3cret"))
//
// # Recursion
//
// Strategies that need to issue requests of their own (for example to fetch
// a token) must pass httpclient.Anonymous on those requests. The client's
// before hook never consults the strategy for anonymous requests, so the
// slot lock is not re-acquired.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

// AccessToken is an alias for types.AccessToken.
type AccessToken = types.AccessToken

// Strategy decorates outgoing requests with authentication.
//
// Decorate is only ever called with exclusive access to the strategy, so
// implementations may mutate their own state without additional locking.
type Strategy interface {
	Decorate(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error)
}

// StrategyFunc adapts an ordinary function to the Strategy interface.
type StrategyFunc func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error)

// Decorate calls f.
func (f StrategyFunc) Decorate(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
	return f(ctx, req, path, opts, client)
}

// StrategyError reports a failure while a strategy decorated a request.
type StrategyError struct {
	Err error
}

// NewStrategyError wraps err. A nil err yields nil.
func NewStrategyError(err error) error {
	if err == nil {
		return nil
	}
	var strategyErr *StrategyError
	if errors.As(err, &strategyErr) {
		return err
	}
	return &StrategyError{Err: err}
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("could not set auth info for request: %v", e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// Slot holds at most one strategy and grants exclusive access to it.
// A Slot must not be copied after first use.
type Slot struct {
	mu       sync.Mutex
	strategy Strategy
}

// NewSlot creates a slot holding strategy, which may be nil.
func NewSlot(strategy Strategy) *Slot {
	return &Slot{strategy: strategy}
}

// Set replaces the strategy, discarding the previous instance and its state.
// It waits for any Decorate call in progress to finish.
func (s *Slot) Set(strategy Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strategy = strategy
}

// Strategy returns the current strategy or nil.
func (s *Slot) Strategy() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.strategy
}

// Decorate runs the current strategy with exclusive access. The request is
// returned unchanged when the slot is empty. Failures are returned as
// *StrategyError.
func (s *Slot) Decorate(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strategy == nil {
		return req, nil
	}

	decorated, err := s.strategy.Decorate(ctx, req, path, opts, client)
	if err != nil {
		return nil, NewStrategyError(err)
	}
	if decorated == nil {
		return nil, NewStrategyError(fmt.Errorf("strategy returned no request"))
	}

	return decorated, nil
}
