package app

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/daemon"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// ErrUnreachable is returned by the probe command when a server does not answer.
var ErrUnreachable = errors.New("directory server unreachable")

func init() { //nolint: gochecknoinits
	directoryTestCmd.Flags().StringVarP(&directoryUser, "user", "u", "", "Username to bind as")
	directoryTestCmd.Flags().StringVarP(&directoryPassword, "password", "p", "", "Password, prompted for when omitted")
	_ = directoryTestCmd.MarkFlagRequired("user")

	directoryCmd.AddCommand(directoryTestCmd, directoryProbeCmd)
	rootCmd.AddCommand(directoryCmd)
}

var (
	directoryUser     string
	directoryPassword string

	directoryCmd = &cobra.Command{
		Use:   "directory",
		Short: "Directory diagnostics",
	}

	directoryTestCmd = &cobra.Command{
		Use:     "test",
		Short:   "Bind against the first configured directory server and list the groups found",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := daemon.Wire(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("password") {
				if directoryPassword, err = promptPassword(cmd); err != nil {
					return err
				}
			}

			settings := c.Identities.DirectorySettings()

			msg, err := c.Directory.TestConnection(cmd.Context(), auth.DirectoryRequest{
				Servers:      settings.Servers,
				Port:         directoryPort(settings),
				UseTLS:       settings.UseTLS,
				SkipVerify:   settings.SkipVerify,
				BaseDN:       settings.BaseDN,
				DomainPrefix: settings.DomainPrefix,
				Username:     directoryUser,
				Password:     directoryPassword,
			})
			if err != nil {
				return err
			}

			cmd.Println(msg)

			return nil
		},
	}

	directoryProbeCmd = &cobra.Command{
		Use:     "probe",
		Short:   "Check that every configured directory server accepts connections",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := daemon.Wire(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			settings := c.Identities.DirectorySettings()
			port := directoryPort(settings)

			var failed bool

			for _, server := range settings.Servers {
				if err := c.Directory.Probe(cmd.Context(), server, port); err != nil {
					cmd.Printf("%s:%d unreachable: %v\n", server, port, err)

					failed = true

					continue
				}

				cmd.Printf("%s:%d reachable\n", server, port)
			}

			if failed {
				return ErrUnreachable
			}

			return nil
		},
	}
)

func directoryPort(s document.DirectorySettings) int {
	if s.Port != 0 {
		return s.Port
	}

	return document.ConventionalPort(s.UseTLS)
}
