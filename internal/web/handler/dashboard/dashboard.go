// Package dashboard provides the device endpoints of the dashboard. Interface lists
// are filtered through the port whitelist of the session.
package dashboard

import (
	"context"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/devices"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

const (
	// Path is the base path of the device endpoints.
	Path = handler.APIPath + "/devices"

	defaultTimeout = 30 * time.Second
)

// Ports is the answer of the ports endpoint.
type Ports struct {
	Device     string              `json:"device"`
	VDOM       string              `json:"vdom,omitempty"`
	Interfaces []devices.Interface `json:"interfaces"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	engine  *auth.Engine
	devices devices.Client
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init registers routes. deps.Devices may be nil.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Engine == nil {
		return handler.ErrNilDeps
	}

	s.engine = deps.Engine
	s.devices = deps.Devices

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireModule(s.engine, document.ModuleDashboard, document.LevelRead))
		router.Get(handler.RootPath, s.List)
		router.Get("/:device/vdoms", s.VDOMs)
		router.Get("/:device/ports", s.Ports)
	})

	return nil
}

// List returns the managed devices.
func (s *Service) List(c *fiber.Ctx) error {
	if s.devices == nil {
		return unavailable(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
	defer cancel()

	list, err := s.devices.Devices(ctx)
	if err != nil {
		return s.upstreamError(c, err)
	}

	return c.JSON(list)
}

// VDOMs returns the virtual domains of a device.
func (s *Service) VDOMs(c *fiber.Ctx) error {
	if s.devices == nil {
		return unavailable(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
	defer cancel()

	vdoms, err := s.devices.VDOMs(ctx, c.Params("device"))
	if err != nil {
		return s.upstreamError(c, err)
	}

	return c.JSON(vdoms)
}

// Ports returns the interfaces of a device the session may operate.
func (s *Service) Ports(c *fiber.Ctx) error {
	if s.devices == nil {
		return unavailable(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
	defer cancel()

	device := c.Params("device")
	vdom := c.Query("vdom")

	ifaces, err := s.devices.Interfaces(ctx, device, vdom)
	if err != nil {
		return s.upstreamError(c, err)
	}

	allowed := s.engine.FilterPorts(auth.IdentityFromContext(c), device, devices.Names(ifaces))

	visible := make([]devices.Interface, 0, len(allowed))

	for _, iface := range ifaces {
		if slices.Contains(allowed, iface.Name) {
			visible = append(visible, iface)
		}
	}

	return c.JSON(Ports{Device: device, VDOM: vdom, Interfaces: visible})
}

func unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": devices.ErrNoClient.Error()})
}

func (s *Service) upstreamError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("device management API request failed")

	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "device management API request failed"})
}
