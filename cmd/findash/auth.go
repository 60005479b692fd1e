package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with your Google account",
		Long: `Sign in with your Google account.

Open the printed URL in a browser to reach the Google consent screen. The
token is saved so later commands stay signed in until you run 'findash logout'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			a, err := newAuthenticator(auth.WithURLOpener(func(url string) {
				fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to sign in:"))
				fmt.Fprintln(out, url)
			}))
			if err != nil {
				return err
			}
			if _, ok := a.(*auth.LocalAuthenticator); ok && appConfig.LocalUser == "" {
				return common.NewUserError("Google sign-in is not configured. Set google.client_id and google.client_secret", common.ErrMissingConfig)
			}

			user, err := a.SignIn(cmd.Context())
			if err != nil {
				return common.NewUserError("Sign-in failed, please try again", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Signed in as %s", user.Email)))
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved Google session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newAuthenticator()
			if err != nil {
				return err
			}
			if err := a.SignOut(cmd.Context()); err != nil {
				return common.NewUserError("Sign-out failed, please try again", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out."))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newAuthenticator()
			if err != nil {
				return err
			}
			user, err := signedInUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s (%s)", user.Email, user.ID)))
			return nil
		},
	}
}
