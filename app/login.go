package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/daemon"
)

// ErrLoginFailed is returned by the login command when authentication fails.
var ErrLoginFailed = errors.New("login failed")

func init() { //nolint: gochecknoinits
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password, prompted for when omitted")
	_ = loginCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(loginCmd)
}

var (
	loginUser     string
	loginPassword string

	loginCmd = &cobra.Command{
		Use:     "login",
		Short:   "Authenticate a user and print the resulting identity",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := daemon.Wire(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("password") {
				if loginPassword, err = promptPassword(cmd); err != nil {
					return err
				}
			}

			id, err := c.Authenticator.Authenticate(cmd.Context(), loginUser, loginPassword)
			if err != nil {
				cmd.PrintErrln(auth.PublicMessage(err))
				return fmt.Errorf("%w: %w", ErrLoginFailed, err)
			}

			out, err := json.MarshalIndent(id, "", "  ")
			if err != nil {
				return err
			}

			cmd.Println(string(out))

			return nil
		},
	}
)
