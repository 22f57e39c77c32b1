package auth

import (
	"fmt"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// Engine answers authorization questions for an identity.
// Everything not explicitly granted is denied: unknown roles get no module access
// and an empty port whitelist allows no port.
type Engine struct {
	store *IdentityStore
}

// NewEngine creates an authorization engine reading profiles from store.
func NewEngine(store *IdentityStore) *Engine {
	return &Engine{store: store}
}

// CanAccessModule returns the access level id has on module.
func (e *Engine) CanAccessModule(id *Identity, module document.Module) document.AccessLevel {
	if id == nil || !module.Valid() {
		return document.LevelNone
	}

	if id.IsSuper() {
		return document.LevelWrite
	}

	profile, ok := e.store.FindProfile(id.Role)
	if !ok {
		return document.LevelNone
	}

	return profile.Level(module)
}

// CanAccessPort reports whether id may act on port of device.
// A port is allowed when it is in the global whitelist or in the whitelist of that device.
func (e *Engine) CanAccessPort(id *Identity, device, port string) bool {
	if id == nil {
		return false
	}

	if id.IsSuper() {
		return true
	}

	return id.hasPort(device, port)
}

// Require returns ErrForbidden unless id has at least level on module.
func (e *Engine) Require(id *Identity, module document.Module, level document.AccessLevel) error {
	if e.CanAccessModule(id, module) < level {
		return fmt.Errorf("%w: %s requires level %d", ErrForbidden, module, level)
	}

	return nil
}

// FilterPorts returns the subset of ports id may act on, keeping their order.
func (e *Engine) FilterPorts(id *Identity, device string, ports []string) []string {
	out := make([]string, 0, len(ports))

	for _, p := range ports {
		if e.CanAccessPort(id, device, p) {
			out = append(out, p)
		}
	}

	return out
}
