// Package user provides the local account endpoints of the admin area.
package user

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

// Path is the base path for account management.
const Path = handler.APIPath + "/accounts"

// PasswordRequest replaces the password of an account.
type PasswordRequest struct {
	Password string `json:"password"`
}

// Service provides CRUD operations for local accounts.
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
		router.Delete("/:user", s.Delete)
		router.Put("/:user/ports", s.SetPorts)
		router.Put("/:user/password", s.SetPassword)
	})

	return nil
}

// List returns the accounts without password hashes.
func (s *Service) List(c *fiber.Ctx) error {
	accounts, err := s.admin.Accounts(auth.IdentityFromContext(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(accounts)
}

// Create adds an account.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(admin.AccountRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.BadRequest(c, "invalid account")
	}

	if err := s.admin.CreateAccount(c.UserContext(), auth.IdentityFromContext(c), *req); err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(admin.AccountView{
		Username:    req.Username,
		Profile:     req.Profile,
		HasPassword: true,
		PortGrant:   req.PortGrant.Normalize(),
	})
}

// Delete removes an account.
func (s *Service) Delete(c *fiber.Ctx) error {
	if err := s.admin.DeleteAccount(c.UserContext(), auth.IdentityFromContext(c), c.Params("user")); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetPorts replaces the port whitelist of an account.
func (s *Service) SetPorts(c *fiber.Ctx) error {
	grant := new(document.PortGrant)
	if err := c.BodyParser(grant); err != nil {
		return handler.BadRequest(c, "invalid port grant")
	}

	if err := s.admin.SetAccountPorts(c.UserContext(), auth.IdentityFromContext(c), c.Params("user"), *grant); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(grant.Normalize())
}

// SetPassword replaces the password of an account.
func (s *Service) SetPassword(c *fiber.Ctx) error {
	req := new(PasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.BadRequest(c, "invalid password")
	}

	if err := s.admin.SetAccountPassword(c.UserContext(), auth.IdentityFromContext(c), c.Params("user"), req.Password); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
