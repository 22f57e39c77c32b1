package app

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when a password is needed but stdin is not a terminal.
var ErrNoTerminal = errors.New("password flag is required when stdin is not a terminal")

// promptPassword reads a password from the terminal without echo.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit an int

	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	cmd.Print("Password: ")

	raw, err := term.ReadPassword(fd)

	cmd.Println()

	if err != nil {
		return "", err
	}

	return string(raw), nil
}
