// Package profile provides the access profile endpoints of the admin area.
package profile

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

// Path is the base path for profile management.
const Path = handler.APIPath + "/profiles"

// Service provides CRUD operations for profiles.
type Service struct {
	handler.Service
	admin *admin.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Admin == nil {
		return handler.ErrNilDeps
	}

	s.admin = deps.Admin

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Get(handler.RootPath, s.List)
		router.Post(handler.RootPath, s.Create)
		router.Put("/:name", s.Update)
		router.Delete("/:name", s.Delete)
	})

	return nil
}

// List returns every profile.
func (s *Service) List(c *fiber.Ctx) error {
	profiles, err := s.admin.Profiles(auth.IdentityFromContext(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(profiles)
}

// Create adds a profile.
func (s *Service) Create(c *fiber.Ctx) error {
	p := new(document.Profile)
	if err := c.BodyParser(p); err != nil {
		return handler.BadRequest(c, "invalid profile")
	}

	if err := s.admin.SaveProfile(c.UserContext(), auth.IdentityFromContext(c), "", *p); err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update edits the profile named in the path. A different name in the body renames it.
func (s *Service) Update(c *fiber.Ctx) error {
	p := new(document.Profile)
	if err := c.BodyParser(p); err != nil {
		return handler.BadRequest(c, "invalid profile")
	}

	if p.Name == "" {
		p.Name = c.Params("name")
	}

	if err := s.admin.SaveProfile(c.UserContext(), auth.IdentityFromContext(c), c.Params("name"), *p); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(p)
}

// Delete removes an unreferenced profile.
func (s *Service) Delete(c *fiber.Ctx) error {
	if err := s.admin.DeleteProfile(c.UserContext(), auth.IdentityFromContext(c), c.Params("name")); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
