package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/devices"
)

// Deps bundles the services the handlers are built from.
type Deps struct {
	Config        *config.Config
	Identities    *auth.IdentityStore
	Authenticator *auth.Authenticator
	Engine        *auth.Engine
	Directory     *auth.DirectoryClient
	Admin         *admin.Service
	Recorder      *audit.Recorder
	// Devices is optional, device endpoints answer 503 without it.
	Devices devices.Client
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
