// Package logs serves the audit trail to operators with read access on Logs.
package logs

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

const (
	// Path is the audit log endpoint.
	Path = handler.APIPath + "/logs"

	defaultLimit = 500
	maxLimit     = 5000
)

// Service is the audit log handler service.
type Service struct {
	handler.Service
	admin *admin.Service
}

// Handler is the audit log handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Admin == nil || deps.Engine == nil {
		return handler.ErrNilDeps
	}

	s.admin = deps.Admin

	app.Get(Path,
		auth.RequireAuthenticated(),
		auth.RequireModule(deps.Engine, document.ModuleLogs, document.LevelRead),
		s.Get,
	)

	return nil
}

// Get lists audit entries, newest first, filtered by the user, action and device
// query parameters.
func (s *Service) Get(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		return handler.BadRequest(c, "limit must be between 1 and 5000")
	}

	entries, err := s.admin.AuditLog(auth.IdentityFromContext(c), audit.Query{
		User:   c.Query("user"),
		Action: c.Query("action"),
		Device: c.Query("device"),
		Limit:  limit,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(entries)
}
