package simpleoauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

func TestRequestToken(t *testing.T) {
	server := newTokenServer(t)
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	resp, err := RequestToken(context.Background(), pipeline, ClientCredentialsGrant{
		ClientID:     "client",
		ClientSecret: "secret",
		Scopes:       []string{"a", "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "token-1", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, uint32(300), resp.ExpiresIn)
	assert.Nil(t, resp.RefreshToken)

	assert.Equal(t, "client_id=client&client_secret=secret&scopes=a,b", server.form())
	assert.Equal(t, ContentTypeForm, server.header().Get("Content-Type"))
}

func TestRequestToken_ContentTypeCannotBeOverridden(t *testing.T) {
	server := newTokenServer(t)
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	_, err := RequestToken(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"},
		httpclient.Header("Content-Type", "text/plain"),
		httpclient.Header("X-Trace", "1"))
	require.NoError(t, err)

	assert.Equal(t, ContentTypeForm, server.header().Get("Content-Type"))
	assert.Equal(t, "1", server.header().Get("X-Trace"))
}

func TestRequestToken_AlwaysAnonymous(t *testing.T) {
	server := newTokenServer(t)

	decorated := 0
	strategy := auth.StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		decorated++
		req.Header.Set("Authorization", "Bearer should-not-be-sent")
		return req, nil
	})
	pipeline := newAuthedPipeline(server.URL, strategy)

	_, err := RequestToken(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"})
	require.NoError(t, err)

	assert.Zero(t, decorated)
	assert.Empty(t, server.header().Get("Authorization"))
}

func TestRequestToken_RefreshToken(t *testing.T) {
	server := newTokenServer(t)
	refresh := "refresh-2"
	server.setResponse(TokenResponse{
		TokenType:    "Bearer",
		ExpiresIn:    60,
		AccessToken:  "refreshed",
		RefreshToken: &refresh,
	})
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	resp, err := RequestToken(context.Background(), pipeline, RefreshTokenGrant{
		ClientID:     "client",
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.RefreshToken)
	assert.Equal(t, "refresh-2", *resp.RefreshToken)
	assert.Equal(t, "client_id=client&refresh_token=refresh-1", server.form())
}

func TestRequestToken_FailedRequest(t *testing.T) {
	server := newTokenServer(t)
	server.setStatus(http.StatusUnauthorized)
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	resp, err := RequestToken(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"})
	require.Error(t, err)
	assert.Nil(t, resp)

	var failed *httpclient.FailedRequest
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, http.StatusUnauthorized, failed.StatusCode())

	body, err := io.ReadAll(failed.Response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "invalid_client")
}

func TestTokenResponse_Conversions(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	refresh := "r"
	resp := &TokenResponse{ExpiresIn: 300, AccessToken: "abc", RefreshToken: &refresh}

	token := resp.ToAccessToken(issuedAt)
	assert.Equal(t, "abc", token.Value)
	assert.Equal(t, issuedAt.Add(5*time.Minute), token.ExpiresAt)

	oauthToken := resp.OAuth2Token(issuedAt)
	assert.Equal(t, "abc", oauthToken.AccessToken)
	assert.Equal(t, "Bearer", oauthToken.TokenType)
	assert.Equal(t, "r", oauthToken.RefreshToken)
	assert.Equal(t, issuedAt.Add(5*time.Minute), oauthToken.Expiry)
	assert.Equal(t, int64(300), oauthToken.ExpiresIn)
}

func TestTokenSource(t *testing.T) {
	server := newTokenServer(t)
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	src := TokenSource(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"}, time.Minute)

	first, err := src.Token()
	require.NoError(t, err)
	second, err := src.Token()
	require.NoError(t, err)

	assert.Equal(t, "token-1", first.AccessToken)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int32(1), server.tokenCalls.Load())
}

func TestTokenSource_ShortLivedTokensAreRefetched(t *testing.T) {
	server := newTokenServer(t)
	server.setResponse(TokenResponse{TokenType: "Bearer", ExpiresIn: 30})
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	src := TokenSource(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"}, time.Minute)

	first, err := src.Token()
	require.NoError(t, err)
	second, err := src.Token()
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int32(2), server.tokenCalls.Load())
}

func TestTokenSource_ExpiryMatchesLeeway(t *testing.T) {
	assert.Equal(t, time.Nanosecond, expiryDelta(0))
	assert.Equal(t, time.Nanosecond, expiryDelta(-time.Second))
	assert.Equal(t, time.Minute+time.Nanosecond, expiryDelta(time.Minute))

	issuedAt := time.Now()
	token := &types.AccessToken{Value: "abc", ExpiresAt: issuedAt.Add(time.Minute)}
	assert.True(t, token.ExpiredAt(issuedAt, time.Minute))
	oauthToken := &oauth2.Token{AccessToken: "abc", Expiry: token.ExpiresAt}
	assert.True(t, oauthToken.Expiry.Round(0).Add(-expiryDelta(time.Minute)).Before(issuedAt),
		"oauth2 must also treat exactly leeway remaining as expired")
}

func TestTokenSource_ZeroLeewayReusesShortLivedTokens(t *testing.T) {
	server := newTokenServer(t)
	server.setResponse(TokenResponse{TokenType: "Bearer", ExpiresIn: 5})
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	src := TokenSource(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"}, 0)

	first, err := src.Token()
	require.NoError(t, err)
	second, err := src.Token()
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int32(1), server.tokenCalls.Load())
}

func TestTokenSource_WithOAuth2Client(t *testing.T) {
	server := newTokenServer(t)
	pipeline := &httpclient.Pipeline{Client: http.DefaultClient, BaseURL: server.URL}

	src := TokenSource(context.Background(), pipeline, ClientCredentialsGrant{ClientID: "client"}, time.Minute)
	client := oauth2.NewClient(context.Background(), src)

	resp, err := client.Get(server.URL + "/api")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{"Bearer token-1"}, server.authorizations())
}
