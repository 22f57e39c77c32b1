package app

import (
	"github.com/spf13/cobra"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/daemon"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/uniuri"
)

func init() { //nolint: gochecknoinits
	accountAddCmd.Flags().StringVarP(&accountUser, "user", "u", "", "Username of the new account")
	accountAddCmd.Flags().StringVarP(&accountPassword, "password", "p", "", "Password, generated when empty")
	accountAddCmd.Flags().StringVar(&accountProfile, "profile", document.StandardUserProfile, "Access profile")
	accountAddCmd.Flags().StringSliceVar(&accountPorts, "ports", nil, "Ports allowed on every device")
	_ = accountAddCmd.MarkFlagRequired("user")

	accountCmd.AddCommand(accountAddCmd)
	rootCmd.AddCommand(accountCmd)
}

// cliActor is the identity administrative cli commands run as.
var cliActor = &auth.Identity{ //nolint:gochecknoglobals
	Username: auth.SuperUsername,
	Role:     document.SuperUserProfile,
	Source:   auth.SourceBuiltin,
}

var (
	accountUser     string
	accountPassword string
	accountProfile  string
	accountPorts    []string

	accountCmd = &cobra.Command{
		Use:   "account",
		Short: "Manage local accounts",
	}

	accountAddCmd = &cobra.Command{
		Use:     "add",
		Short:   "Add a local account",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := daemon.Wire(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			plain := accountPassword
			if plain == "" {
				if plain, err = uniuri.Password(); err != nil {
					return err
				}
			}

			grant := document.EmptyGrant()
			grant.GlobalAllowedPorts = accountPorts

			err = c.Admin.CreateAccount(cmd.Context(), cliActor, admin.AccountRequest{
				Username:  accountUser,
				Password:  plain,
				Profile:   accountProfile,
				PortGrant: grant,
			})
			if err != nil {
				return err
			}

			if accountPassword == "" {
				cmd.Printf("account %s created with password: %s\n", accountUser, plain)
			} else {
				cmd.Printf("account %s created\n", accountUser)
			}

			return nil
		},
	}
)
