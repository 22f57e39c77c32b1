package auth

import (
	"slices"
	"time"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// SuperUsername is the permanent super identity. It always carries the Super_User role.
const SuperUsername = "admin"

// Source tells where an identity was verified.
type Source string

const (
	// SourceBuiltin is the hardcoded admin/admin recovery credential.
	SourceBuiltin Source = "builtin"
	// SourceLocal is a local account of the configuration document.
	SourceLocal Source = "local"
	// SourceDirectory is a directory bind resolved through a group mapping.
	SourceDirectory Source = "directory"
)

// Identity is an authenticated principal. It is created once per login, kept in the
// session and discarded on logout.
type Identity struct {
	Username           string              `json:"username"`
	Role               string              `json:"role"`
	Source             Source              `json:"source"`
	GlobalAllowedPorts []string            `json:"global_allowed_ports"`
	DeviceAllowedPorts map[string][]string `json:"device_allowed_ports"`
	LoginTime          time.Time           `json:"login_time"`
}

// IsSuper reports whether the identity bypasses module and port checks.
func (i *Identity) IsSuper() bool {
	return i.Username == SuperUsername || i.Role == document.SuperUserProfile
}

func newIdentity(username, role string, source Source, grant document.PortGrant, now time.Time) *Identity {
	if username == SuperUsername {
		role = document.SuperUserProfile
	}

	grant = grant.Clone()

	return &Identity{
		Username:           username,
		Role:               role,
		Source:             source,
		GlobalAllowedPorts: grant.GlobalAllowedPorts,
		DeviceAllowedPorts: grant.DeviceAllowedPorts,
		LoginTime:          now,
	}
}

// hasPort reports whether the two tier whitelist grants port on device.
func (i *Identity) hasPort(device, port string) bool {
	if slices.Contains(i.GlobalAllowedPorts, port) {
		return true
	}

	ports, ok := i.DeviceAllowedPorts[device]

	return ok && slices.Contains(ports, port)
}
