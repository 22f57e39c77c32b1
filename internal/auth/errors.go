package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSuchIdentity is returned when no local account matched and the directory
	// is disabled or can not be asked.
	ErrNoSuchIdentity = errors.New("no such identity")

	// ErrDirectoryUnavailable is returned when no configured directory server accepted a bind.
	// Bad credentials and unreachable servers are deliberately not told apart.
	ErrDirectoryUnavailable = errors.New("directory authentication failed")

	// ErrInvalidCredentials is returned by the directory client when no server and no
	// candidate bind name succeeded.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when an identity lacks the access level an action requires.
	ErrForbidden = errors.New("forbidden")

	// ErrNoDirectoryServer is returned when a directory request names no server.
	ErrNoDirectoryServer = errors.New("no directory server configured")
)

// UnauthorizedGroupError is returned when a directory bind succeeded but none of the
// user's groups is mapped to a profile. It carries the group names for troubleshooting.
type UnauthorizedGroupError struct {
	Username string
	Groups   []string
}

func (e *UnauthorizedGroupError) Error() string {
	return fmt.Sprintf("user %q is not in a mapped directory group", e.Username)
}

const (
	msgInvalidLogin  = "Invalid username or password."
	msgUnmappedGroup = "Directory login succeeded but no group is mapped to a profile."
)

// PublicMessage returns the message shown to the person logging in.
// Unknown identities and directory failures share one text so usernames can not be probed.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}

	var groupErr *UnauthorizedGroupError
	if errors.As(err, &groupErr) {
		if len(groupErr.Groups) == 0 {
			return msgUnmappedGroup + " The account is not a member of any group."
		}

		return msgUnmappedGroup + " Groups found: " + strings.Join(groupErr.Groups, ", ")
	}

	return msgInvalidLogin
}
