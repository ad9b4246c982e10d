package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims of a JWT access token that are useful for
// display and diagnostics.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Scopes    []string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ParseClaims parses a JWT WITHOUT validation (for claim inspection only).
// Returns an error only for malformed tokens, NOT for expired or unsigned ones.
func ParseClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}

	claims := &Claims{}

	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iss, err := mapClaims.GetIssuer(); err == nil {
		claims.Issuer = iss
	}
	if aud, err := mapClaims.GetAudience(); err == nil {
		claims.Audience = aud
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	// simple_oauth issues "scope" as an array; RFC 8693 uses a space separated string.
	switch scope := mapClaims["scope"].(type) {
	case string:
		claims.Scopes = strings.Fields(scope)
	case []interface{}:
		for _, s := range scope {
			if str, ok := s.(string); ok {
				claims.Scopes = append(claims.Scopes, str)
			}
		}
	}

	return claims, nil
}

// IsJWT reports whether tokenString looks like a signed JWT (three parts).
func IsJWT(tokenString string) bool {
	return strings.Count(tokenString, ".") == 2
}
