// Package simpleoauth implements the token endpoint of the Drupal
// simple_oauth module.
//
// RequestToken exchanges a Grant for a TokenResponse. ClientCredentialsStrategy
// is an auth.Strategy that fetches a token on demand with the client
// credentials grant, caches it until it is about to expire and attaches it as
// a bearer token. TokenSource exposes the same issuance to golang.org/x/oauth2
// consumers.
//
// Token requests are always sent anonymously so that fetching a token never
// re-enters the strategy that asked for it.
package simpleoauth
