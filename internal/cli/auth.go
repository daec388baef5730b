package cli

import (
	"fmt"

	"github.com/Jumpaku/go-drivemap/auth"
	"github.com/spf13/cobra"
)

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with a browser and save the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oauthConfig, err := auth.LoadClientSecrets(a.cfg.ClientSecretsFile)
			if err != nil {
				return err
			}
			if _, err := auth.Login(cmd.Context(), oauthConfig, a.credentialStore(), a.openURL(), a.logger); err != nil {
				return err
			}
			fmt.Fprintln(a.Stderr, "Login successful.")
			return nil
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := auth.Logout(a.credentialStore(), a.logger); err != nil {
				return err
			}
			fmt.Fprintln(a.Stderr, "Logged out.")
			return nil
		},
	}
}
