package simpleoauth

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

type tokenSource struct {
	ctx    context.Context
	client httpclient.Executor
	grant  Grant
	now    func() time.Time
}

// TokenSource returns an oauth2.TokenSource that requests tokens with grant.
//
// Tokens are reused until leeway before their expiry, with the same boundary
// as types.AccessToken.ExpiredAt: a token with exactly leeway left is
// replaced. A zero leeway reuses tokens until they expire. The source can
// back oauth2.NewClient for code that expects the x/oauth2 interfaces.
func TokenSource(ctx context.Context, client httpclient.Executor, grant Grant, leeway time.Duration) oauth2.TokenSource {
	src := &tokenSource{
		ctx:    ctx,
		client: client,
		grant:  grant,
		now:    time.Now,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, expiryDelta(leeway))
}

// expiryDelta converts leeway into the delta oauth2 expects. oauth2 keeps a
// token whose remaining time equals the delta and substitutes its own default
// for zero, so the delta is always one tick past the leeway.
func expiryDelta(leeway time.Duration) time.Duration {
	return max(leeway, 0) + time.Nanosecond
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	issuedAt := s.now()
	resp, err := RequestToken(s.ctx, s.client, s.grant)
	if err != nil {
		return nil, err
	}
	return resp.OAuth2Token(issuedAt), nil
}
