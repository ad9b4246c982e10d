// Package testsite provides an in-process Drupal site with a simple_oauth
// token endpoint for tests.
package testsite

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Token is a token issued by the site.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Scopes       string    `json:"-"`
	IssuedAt     time.Time `json:"-"`
}

// Site is a mock Drupal site. Requests to /oauth/token are answered like
// simple_oauth does; every other path requires a valid bearer token.
type Site struct {
	server        *httptest.Server
	clientID      string
	clientSecret  string
	tokenLifetime time.Duration
	refreshTokens bool

	mu          sync.RWMutex
	tokens      map[string]*Token
	tokenCalls  int
	consumerIDs []string
}

// New starts a site that accepts the given client credentials.
func New(clientID, clientSecret string) *Site {
	s := &Site{
		clientID:      clientID,
		clientSecret:  clientSecret,
		tokenLifetime: time.Hour,
		tokens:        make(map[string]*Token),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", s.handleToken)
	mux.HandleFunc("/", s.authenticated(s.handleResource))

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the site.
func (s *Site) URL() string {
	return s.server.URL
}

// Client returns an HTTP client that talks to the site.
func (s *Site) Client() *http.Client {
	return s.server.Client()
}

// Close shuts down the site.
func (s *Site) Close() {
	s.server.Close()
}

// SetTokenLifetime sets the lifetime of tokens issued from now on.
func (s *Site) SetTokenLifetime(lifetime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenLifetime = lifetime
}

// SetRefreshTokens makes client credentials responses carry a refresh token.
func (s *Site) SetRefreshTokens(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = enabled
}

// TokenCalls returns how many token requests the site has answered.
func (s *Site) TokenCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenCalls
}

// ConsumerIDs returns the X-Consumer-ID header of every token request.
func (s *Site) ConsumerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.consumerIDs...)
}

// Token returns an issued token by access or refresh token value.
func (s *Site) Token(value string) (*Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[value]
	return t, ok
}

func (s *Site) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		s.sendError(w, "invalid_request", "Expected a form body", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.sendError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.tokenCalls++
	s.consumerIDs = append(s.consumerIDs, r.Header.Get("X-Consumer-ID"))
	s.mu.Unlock()

	if r.PostForm.Get("client_id") != s.clientID || r.PostForm.Get("client_secret") != s.clientSecret {
		s.sendError(w, "invalid_client", "Client authentication failed", http.StatusUnauthorized)
		return
	}

	scopes := r.PostForm.Get("scopes")
	s.mu.RLock()
	withRefresh := s.refreshTokens
	s.mu.RUnlock()

	if refreshToken := r.PostForm.Get("refresh_token"); refreshToken != "" {
		old, ok := s.Token(refreshToken)
		if !ok || old.RefreshToken != refreshToken {
			s.sendError(w, "invalid_grant", "The refresh token is invalid", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		delete(s.tokens, refreshToken)
		s.mu.Unlock()
		if scopes == "" {
			scopes = old.Scopes
		}
		withRefresh = true
	}

	token := s.issue(scopes, withRefresh)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(token)
}

func (s *Site) handleResource(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]string{"path": r.URL.Path},
	})
}

// authenticated wraps a handler to require a valid bearer token.
func (s *Site) authenticated(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != "Bearer" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}
		if !s.valid(value) {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}
}

func (s *Site) valid(accessToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[accessToken]
	if !ok || t.AccessToken != accessToken {
		return false
	}
	return time.Since(t.IssuedAt) < time.Duration(t.ExpiresIn)*time.Second
}

func (s *Site) issue(scopes string, withRefresh bool) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := &Token{
		AccessToken: randomString(48),
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenLifetime.Seconds()),
		Scopes:      scopes,
		IssuedAt:    time.Now(),
	}
	s.tokens[token.AccessToken] = token
	if withRefresh {
		token.RefreshToken = randomString(48)
		s.tokens[token.RefreshToken] = token
	}
	return token
}

func (s *Site) sendError(w http.ResponseWriter, code, description string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func randomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}
