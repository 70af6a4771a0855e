package command

import (
	"errors"
	"fmt"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/spf13/cobra"
)

func createLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an embedded wallet",
	}

	cmd.AddCommand(createLoginEmailCmd())

	return cmd
}

func createLoginEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "email <address>",
		Short: "Log in with a one-time code sent by email",
		Long: `Log in with a one-time code sent by email and print the account address.

Requires email_auth_url in the config. A wrong code can be retried; an empty
line gives up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmn.Config.EmailAuthURL == "" {
				return errors.New("email login is not configured (email_auth_url)")
			}

			app, err := startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.Email.SendCode(ctx, args[0]); err != nil {
				return fmt.Errorf("sending code: %s", cmn.ErrorText(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Code sent to %s\n", app.Email.Email())

			for {
				code, err := readLine("Code: ")
				if err != nil {
					return err
				}
				if code == "" {
					return errors.New("login cancelled")
				}
				err = app.Email.LoginWithCode(ctx, code)
				if err == nil {
					break
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", cmn.ErrorText(err))
			}

			addr, _ := app.Primary()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", addr.Hex())
			return nil
		},
	}
}
