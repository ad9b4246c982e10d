package simpleoauth

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

// TokenResponse is the JSON body returned by the token endpoint.
type TokenResponse struct {
	TokenType    string  `json:"token_type"`
	ExpiresIn    uint32  `json:"expires_in"`
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
}

// Lifetime returns ExpiresIn as a duration.
func (r *TokenResponse) Lifetime() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

// ToAccessToken converts the response into an access token issued at issuedAt.
func (r *TokenResponse) ToAccessToken(issuedAt time.Time) *types.AccessToken {
	return types.NewAccessToken(r.AccessToken, r.Lifetime(), issuedAt)
}

// OAuth2Token converts the response into an *oauth2.Token issued at issuedAt.
func (r *TokenResponse) OAuth2Token(issuedAt time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		Expiry:      issuedAt.Add(r.Lifetime()),
		ExpiresIn:   int64(r.ExpiresIn),
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if r.RefreshToken != nil {
		tok.RefreshToken = *r.RefreshToken
	}
	return tok
}
