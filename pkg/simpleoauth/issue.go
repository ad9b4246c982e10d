package simpleoauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

const (
	// TokenPath is the path of the token endpoint relative to the site's base URL.
	TokenPath = "/oauth/token"

	// ContentTypeForm is the content type of token requests.
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// RequestToken posts grant to the token endpoint and decodes the response.
//
// The request is always anonymous regardless of opts, so no auth strategy
// runs for it. Errors from the pipeline are returned unchanged.
func RequestToken(ctx context.Context, client httpclient.Executor, grant Grant, opts ...httpclient.RequestOption) (*TokenResponse, error) {
	opts = append(append([]httpclient.RequestOption{}, opts...),
		httpclient.Header("Content-Type", ContentTypeForm),
		httpclient.Anonymous(),
	)

	resp, err := httpclient.ExecuteJSON[TokenResponse](ctx, client, http.MethodPost, TokenPath, strings.NewReader(EncodeGrant(grant)), opts...)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
