package testsite

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postToken(t *testing.T, site *Site, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := site.Client().Post(site.URL()+"/oauth/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestSite_ClientCredentials(t *testing.T) {
	site := New("client", "secret")
	defer site.Close()

	resp, body := postToken(t, site, url.Values{"client_id": {"client"}, "client_secret": {"secret"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.NotContains(t, body, "refresh_token")

	req, err := http.NewRequest(http.MethodGet, site.URL()+"/jsonapi/node", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+body["access_token"].(string))
	res, err := site.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, 1, site.TokenCalls())
}

func TestSite_InvalidClient(t *testing.T) {
	site := New("client", "secret")
	defer site.Close()

	resp, body := postToken(t, site, url.Values{"client_id": {"client"}, "client_secret": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_client", body["error"])
}

func TestSite_RefreshToken(t *testing.T) {
	site := New("client", "secret")
	defer site.Close()
	site.SetRefreshTokens(true)

	_, first := postToken(t, site, url.Values{"client_id": {"client"}, "client_secret": {"secret"}, "scopes": {"a,b"}})
	refresh := first["refresh_token"].(string)
	require.NotEmpty(t, refresh)

	resp, second := postToken(t, site, url.Values{"client_id": {"client"}, "client_secret": {"secret"}, "refresh_token": {refresh}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, first["access_token"], second["access_token"])

	issued, ok := site.Token(second["access_token"].(string))
	require.True(t, ok)
	assert.Equal(t, "a,b", issued.Scopes)

	// Refresh tokens are single use.
	resp, body := postToken(t, site, url.Values{"client_id": {"client"}, "client_secret": {"secret"}, "refresh_token": {refresh}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestSite_RequiresBearer(t *testing.T) {
	site := New("client", "secret")
	defer site.Close()

	resp, err := site.Client().Get(site.URL() + "/jsonapi/node")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
