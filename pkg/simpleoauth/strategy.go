package simpleoauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/auth/storage"
	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
	"github.com/drupalkit/drupalkit/pkg/secrets"
)

// ClientCredentialsStrategy authenticates requests with a bearer token
// obtained through the client credentials grant.
//
// The token is fetched on first use and reused until it is within the leeway
// of its expiry. Stored tokens are only reused when they were issued to the
// same site, client id and scopes.
type ClientCredentialsStrategy struct {
	clientID     string
	clientSecret string
	scopes       []string
	site         string

	leeway  time.Duration
	storage storage.TokenStorage
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	token *types.AccessToken
}

// Option configures a ClientCredentialsStrategy.
type Option func(*ClientCredentialsStrategy)

// WithLeeway sets how long before expiry a token is replaced.
func WithLeeway(leeway time.Duration) Option {
	return func(s *ClientCredentialsStrategy) {
		s.leeway = leeway
	}
}

// WithTokenStorage persists fetched tokens and reuses stored ones.
func WithTokenStorage(ts storage.TokenStorage) Option {
	return func(s *ClientCredentialsStrategy) {
		s.storage = ts
	}
}

// WithSite sets the site stored tokens are bound to. Without it the base URL
// of the requesting client is used.
func WithSite(baseURL string) Option {
	return func(s *ClientCredentialsStrategy) {
		s.site = baseURL
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ClientCredentialsStrategy) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *ClientCredentialsStrategy) {
		s.now = now
	}
}

// NewClientCredentialsStrategy creates a strategy for the given client.
func NewClientCredentialsStrategy(clientID, clientSecret string, scopes []string, opts ...Option) *ClientCredentialsStrategy {
	s := &ClientCredentialsStrategy{
		clientID:     clientID,
		clientSecret: clientSecret,
		scopes:       append([]string(nil), scopes...),
		leeway:       types.DefaultLeeway,
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Decorate attaches a valid access token to req, fetching one if needed.
func (s *ClientCredentialsStrategy) Decorate(ctx context.Context, req *http.Request, _ string, _ *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.validToken(ctx, client)
	if err != nil {
		s.logger.Debug("Failed to obtain access token",
			"client_id", s.clientID,
			"error", err)
		return nil, auth.NewStrategyError(err)
	}

	auth.SetBearer(req, token.Value)
	return req, nil
}

// Token returns a copy of the cached token, or nil if there is none.
func (s *ClientCredentialsStrategy) Token() *types.AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil
	}
	tokenCopy := *s.token
	return &tokenCopy
}

// Reset discards the cached token. A stored token is left untouched.
func (s *ClientCredentialsStrategy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Owner returns the owner stored tokens are bound to when requests go
// through client. client may be nil when WithSite was used.
func (s *ClientCredentialsStrategy) Owner(client httpclient.Executor) types.TokenOwner {
	site := s.site
	if site == "" {
		if c, ok := client.(interface{ BaseURL() string }); ok {
			site = c.BaseURL()
		}
	}
	return types.TokenOwner{
		Site:     site,
		ClientID: s.clientID,
		Scopes:   append([]string(nil), s.scopes...),
	}
}

// Grant returns the grant used to fetch tokens.
func (s *ClientCredentialsStrategy) Grant() ClientCredentialsGrant {
	return ClientCredentialsGrant{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Scopes:       append([]string(nil), s.scopes...),
	}
}

func (s *ClientCredentialsStrategy) validToken(ctx context.Context, client httpclient.Executor) (*types.AccessToken, error) {
	now := s.now()

	if s.token != nil && !s.token.ExpiredAt(now, s.leeway) {
		return s.token, nil
	}

	owner := s.Owner(client)
	if stored := s.loadStored(ctx, owner, now); stored != nil {
		s.token = stored
		return stored, nil
	}

	if client == nil {
		return nil, fmt.Errorf("no client available to request a token")
	}

	resp, err := RequestToken(ctx, client, s.Grant())
	if err != nil {
		return nil, err
	}

	token := resp.ToAccessToken(now)
	s.token = token

	s.logger.Debug("Fetched access token",
		"client_id", s.clientID,
		"token", secrets.Mask(token.Value),
		"expires_at", token.ExpiresAt)

	if s.storage != nil {
		if err := s.storage.SaveToken(ctx, owner, token); err != nil {
			s.logger.Warn("Failed to persist access token",
				"client_id", s.clientID,
				"error", err)
		}
	}

	return token, nil
}

func (s *ClientCredentialsStrategy) loadStored(ctx context.Context, owner types.TokenOwner, now time.Time) *types.AccessToken {
	if s.storage == nil {
		return nil
	}

	token, err := s.storage.LoadToken(ctx, owner)
	if err != nil {
		if !errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.Warn("Failed to load stored access token",
				"client_id", s.clientID,
				"error", err)
		}
		return nil
	}
	if token == nil || token.ExpiredAt(now, s.leeway) {
		return nil
	}

	s.logger.Debug("Using stored access token",
		"client_id", s.clientID,
		"site", owner.Site,
		"expires_at", token.ExpiresAt)
	return token
}
