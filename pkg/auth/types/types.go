// Package types defines common types used across the auth package.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultLeeway is the safety margin before expiry at which an access token
// is already treated as expired.
const DefaultLeeway = time.Minute

// AccessToken is a short-lived bearer credential with a known expiry instant.
// Tokens are replaced wholesale on refresh, never mutated in place.
type AccessToken struct {
	// Value is the actual token value.
	Value string `json:"value"`
	// ExpiresAt is when the token expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAccessToken creates a token that expires expiresIn after issuedAt.
func NewAccessToken(value string, expiresIn time.Duration, issuedAt time.Time) *AccessToken {
	return &AccessToken{
		Value:     value,
		ExpiresAt: issuedAt.Add(expiresIn),
	}
}

// IsExpired returns true if DefaultLeeway or less remains until expiry.
func (t *AccessToken) IsExpired() bool {
	return t.ExpiredAt(time.Now(), DefaultLeeway)
}

// ExpiredAt reports whether the token counts as expired at now, given leeway.
// A token with exactly leeway remaining is expired.
func (t *AccessToken) ExpiredAt(now time.Time, leeway time.Duration) bool {
	return t.ExpiresAt.Sub(now) <= leeway
}

// OAuth2Token converts the token for use with golang.org/x/oauth2.
func (t *AccessToken) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}
}

// TokenOwner identifies the client a token was issued to. A stored token may
// only be reused by a strategy with the same owner.
type TokenOwner struct {
	// Site is the base URL of the site that issued the token.
	Site string `json:"site"`
	// ClientID is the OAuth client the token belongs to.
	ClientID string `json:"client_id"`
	// Scopes are the scopes the token was requested with.
	Scopes []string `json:"scopes,omitempty"`
}

// Key returns a stable identifier for the owner that is safe to use as a file
// name or keyring account. Trailing slashes on Site and scope order are
// ignored.
func (o TokenOwner) Key() string {
	scopes := slices.Clone(o.Scopes)
	slices.Sort(scopes)

	h := sha256.New()
	h.Write([]byte(strings.TrimRight(o.Site, "/")))
	h.Write([]byte{0})
	h.Write([]byte(o.ClientID))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(scopes, " ")))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Matches reports whether o and other identify the same owner.
func (o TokenOwner) Matches(other TokenOwner) bool {
	return o.Key() == other.Key()
}

// StorageConfig represents token storage configuration.
type StorageConfig struct {
	// Type is the storage backend type.
	Type StorageType `yaml:"type" json:"type" mapstructure:"type"`
	// Path is the directory for file-based storage.
	Path string `yaml:"path,omitempty" json:"path,omitempty" mapstructure:"path"`
	// KeyringService is the service name for keyring storage.
	KeyringService string `yaml:"keyring_service,omitempty" json:"keyring_service,omitempty" mapstructure:"keyring_service"`
	// KeyringUser prefixes the keyring account of every stored token.
	KeyringUser string `yaml:"keyring_user,omitempty" json:"keyring_user,omitempty" mapstructure:"keyring_user"`
}

// StorageType represents the type of token storage.
type StorageType string

const (
	// StorageTypeNone disables token persistence.
	StorageTypeNone StorageType = "none"
	// StorageTypeFile uses file-based storage.
	StorageTypeFile StorageType = "file"
	// StorageTypeKeyring uses OS keyring storage.
	StorageTypeKeyring StorageType = "keyring"
	// StorageTypeMemory uses in-memory storage.
	StorageTypeMemory StorageType = "memory"
	// StorageTypeAuto uses the OS keyring and falls back to files.
	StorageTypeAuto StorageType = "auto"
)
