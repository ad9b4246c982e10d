package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/drupalkit/drupalkit/pkg/config"
)

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored access token",
		Long: `Delete the access token stored for the configured base URL, client id
and scopes. Tokens of other sites or clients are kept.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenStorage, err := config.NewTokenStorage(a.config)
			if err != nil {
				return err
			}
			if tokenStorage == nil {
				return fmt.Errorf("token storage is not configured")
			}

			if err := tokenStorage.DeleteToken(cmd.Context(), a.config.TokenOwner()); err != nil {
				return err
			}

			if !a.quiet {
				pterm.Success.WithWriter(cmd.ErrOrStderr()).Println("Stored token deleted")
			}
			return nil
		},
	}
}
