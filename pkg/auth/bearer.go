package auth

import (
	"context"
	"net/http"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

// BearerStrategy attaches a fixed bearer token. It is stateless.
type BearerStrategy struct {
	token string
}

// NewBearerStrategy creates a Bearer strategy for token.
func NewBearerStrategy(token string) *BearerStrategy {
	return &BearerStrategy{token: token}
}

// Decorate sets the Authorization header.
func (b *BearerStrategy) Decorate(_ context.Context, req *http.Request, _ string, _ *httpclient.RequestOptions, _ httpclient.Executor) (*http.Request, error) {
	SetBearer(req, b.token)
	return req, nil
}

// SetBearer sets "Authorization: Bearer <token>" on req.
func SetBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}
