package simpleoauth

import (
	"net/url"
	"strings"
)

// Grant holds the parameters of one token request.
// The set of grants is closed; see ClientCredentialsGrant and RefreshTokenGrant.
type Grant interface {
	fields() []field
}

// ClientCredentialsGrant requests a token for the client itself.
type ClientCredentialsGrant struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// RefreshTokenGrant exchanges a refresh token for a new access token.
type RefreshTokenGrant struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scopes       []string
}

type field struct {
	name  string
	value string
}

func (g ClientCredentialsGrant) fields() []field {
	return []field{
		{"client_id", g.ClientID},
		{"client_secret", g.ClientSecret},
		{"scopes", strings.Join(g.Scopes, ",")},
	}
}

func (g RefreshTokenGrant) fields() []field {
	return []field{
		{"client_id", g.ClientID},
		{"client_secret", g.ClientSecret},
		{"refresh_token", g.RefreshToken},
		{"scopes", strings.Join(g.Scopes, ",")},
	}
}

// EncodeGrant renders grant as an application/x-www-form-urlencoded body.
//
// Fields appear in a fixed order and empty fields are left out. Values are
// form-escaped, except that the comma separating scopes stays literal.
func EncodeGrant(grant Grant) string {
	if grant == nil {
		return ""
	}

	var b strings.Builder
	for _, f := range grant.fields() {
		if f.value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.name)
		b.WriteByte('=')
		b.WriteString(escapeValue(f.value))
	}
	return b.String()
}

func escapeValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "%2C", ",")
}
