package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/config"
	"github.com/drupalkit/drupalkit/pkg/secrets"
	"github.com/drupalkit/drupalkit/pkg/simpleoauth"
)

type tokenOptions struct {
	refreshToken string
	show         bool
}

func newTokenCmd(a *app) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request an access token from simple_oauth",
		Long: `Request an access token using the configured client credentials.

Client credentials tokens are saved to the configured token storage,
keyed by base URL, client id and scopes, so later requests with the
same settings reuse them. With --refresh-token the refresh token grant
is used instead and the resulting token is only printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.refreshToken, "refresh-token", "", "Exchange this refresh token instead of using client credentials")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Print token values unmasked")

	return cmd
}

func runToken(cmd *cobra.Command, a *app, opts *tokenOptions) error {
	cfg := a.config
	if cfg.Auth.Type != config.AuthClientCredentials {
		return fmt.Errorf("auth type must be %q to request tokens, got %q", config.AuthClientCredentials, cfg.Auth.Type)
	}

	client, err := a.newClient()
	if err != nil {
		return err
	}

	var grant simpleoauth.Grant = simpleoauth.ClientCredentialsGrant{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Scopes:       cfg.Auth.Scopes,
	}
	if opts.refreshToken != "" {
		grant = simpleoauth.RefreshTokenGrant{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			RefreshToken: opts.refreshToken,
			Scopes:       cfg.Auth.Scopes,
		}
	}

	issuedAt := time.Now()
	var resp *simpleoauth.TokenResponse
	err = a.withSpinner("Requesting token", func() error {
		var err error
		resp, err = client.RequestToken(cmd.Context(), grant)
		return err
	})
	if err != nil {
		return err
	}

	token := resp.ToAccessToken(issuedAt)

	if opts.refreshToken == "" {
		if err := saveToken(cmd, a, token); err != nil {
			return err
		}
	} else {
		a.logger.Debug("Not saving refresh grant token")
	}

	mask := func(v string) string {
		if opts.show {
			return v
		}
		return secrets.MaskValue(v, &cfg.Masking)
	}

	rows := pterm.TableData{
		{"Field", "Value"},
		{"Access token", mask(resp.AccessToken)},
		{"Token type", resp.TokenType},
		{"Expires in", resp.Lifetime().String()},
		{"Expires at", token.ExpiresAt.Format(time.RFC3339)},
	}
	if resp.RefreshToken != nil {
		rows = append(rows, []string{"Refresh token", mask(*resp.RefreshToken)})
	}

	if auth.IsJWT(resp.AccessToken) {
		if claims, err := auth.ParseClaims(resp.AccessToken); err == nil {
			rows = append(rows,
				[]string{"Subject", claims.Subject},
				[]string{"Issuer", claims.Issuer},
				[]string{"Audience", strings.Join(claims.Audience, ", ")},
				[]string{"Scopes", strings.Join(claims.Scopes, ", ")},
			)
		} else {
			a.logger.Debug("Token looks like a JWT but could not be parsed", "error", err)
		}
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// saveToken stores a client credentials token under the owner derived from
// the effective configuration.
func saveToken(cmd *cobra.Command, a *app, token *types.AccessToken) error {
	tokenStorage, err := config.NewTokenStorage(a.config)
	if err != nil {
		return err
	}
	if tokenStorage == nil {
		return nil
	}

	owner := a.config.TokenOwner()
	if err := tokenStorage.SaveToken(cmd.Context(), owner, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	a.logger.Debug("Saved token",
		"storage", a.config.Storage.Type,
		"site", owner.Site,
		"client_id", owner.ClientID)
	return nil
}

// withSpinner runs fn while showing a spinner, unless output is quiet.
func (a *app) withSpinner(message string, fn func() error) error {
	if a.quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message + "..."
	s.Start()
	defer s.Stop()

	return fn()
}
