// Package authorize exposes the module and port checks to the console frontend.
package authorize

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

// Path is the base path of the authorization endpoints.
const Path = handler.APIPath + "/authorize"

// ModuleAccess is the answer of the module check.
type ModuleAccess struct {
	Module document.Module      `json:"module"`
	Level  document.AccessLevel `json:"level"`
}

// PortAccess is the answer of the port check.
type PortAccess struct {
	Device  string `json:"device"`
	Port    string `json:"port"`
	Allowed bool   `json:"allowed"`
}

// Service is the authorization handler service.
type Service struct {
	handler.Service
	engine *auth.Engine
}

// Handler is the authorization handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Engine == nil {
		return handler.ErrNilDeps
	}

	s.engine = deps.Engine

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Get("/module/:module", s.Module)
		router.Get("/port", s.Port)
	})

	return nil
}

// Module reports the access level of the session on a module. Unknown modules yield 0.
func (s *Service) Module(c *fiber.Ctx) error {
	module := document.Module(c.Params("module"))

	return c.JSON(ModuleAccess{
		Module: module,
		Level:  s.engine.CanAccessModule(auth.IdentityFromContext(c), module),
	})
}

// Port reports whether the session may operate port on device.
func (s *Service) Port(c *fiber.Ctx) error {
	device := c.Query("device")
	port := c.Query("port")

	if device == "" || port == "" {
		return handler.BadRequest(c, "device and port are required")
	}

	return c.JSON(PortAccess{
		Device:  device,
		Port:    port,
		Allowed: s.engine.CanAccessPort(auth.IdentityFromContext(c), device, port),
	})
}
