// Package devices describes the device management API the console reads its device,
// VDOM and interface lists from. The console only consumes it.
package devices

import (
	"context"
	"errors"
)

// ErrNoClient is returned when no device management API is configured.
var ErrNoClient = errors.New("device management API is not configured")

// Device is a managed firewall.
type Device struct {
	Name     string `json:"name"`
	Serial   string `json:"serial,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// Interface is a physical or virtual port of a device.
type Interface struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Client is the device management API.
type Client interface {
	Devices(ctx context.Context) ([]Device, error)
	VDOMs(ctx context.Context, device string) ([]string, error)
	Interfaces(ctx context.Context, device, vdom string) ([]Interface, error)
}

// Names returns the interface names in order.
func Names(ifaces []Interface) []string {
	out := make([]string, 0, len(ifaces))
	for _, i := range ifaces {
		out = append(out, i.Name)
	}

	return out
}
