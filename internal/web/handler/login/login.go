package login

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/session"
)

const (
	// Path is the login endpoint.
	Path = handler.APIPath + "/login"
	// LogoutPath is the logout endpoint.
	LogoutPath = handler.APIPath + "/logout"
	// MePath returns the identity of the session.
	MePath = handler.APIPath + "/me"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil || deps.Authenticator == nil {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Config
	s.deps = deps

	app.Post(Path, s.Post)
	app.Post(LogoutPath, s.Logout)
	app.Get(MePath, auth.RequireAuthenticated(), s.Me)

	return nil
}

// Post authenticates the credentials and opens a session.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(Credentials)
	if err := c.BodyParser(creds); err != nil {
		return handler.BadRequest(c, ErrInvalidFormData.Error())
	}

	creds.Username = strings.TrimSpace(creds.Username)

	id, err := s.deps.Authenticator.Authenticate(c.UserContext(), creds.Username, creds.Password)
	if err != nil {
		if s.deps.Recorder != nil && creds.Username != "" {
			s.deps.Recorder.Log(creds.Username, "LoginFailed", "", failureReason(err))
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": auth.PublicMessage(err)})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternalServerError.Error()})
	}

	userSession := &session.Data{Identity: *id}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternalServerError.Error()})
	}

	c.Cookie(s.cookie(sessionID, int(s.cfg.Webserver.Session.ExpiryTime.Seconds())))

	if s.deps.Recorder != nil {
		s.deps.Recorder.Log(id.Username, "Login", "", "source="+string(id.Source)+" role="+id.Role)
	}

	return c.JSON(id)
}

// Logout deletes the session and clears the cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)

	if id := auth.IdentityFromContext(c); id != nil && s.deps.Recorder != nil {
		s.deps.Recorder.Log(id.Username, "Logout", "", "")
	}

	if err := session.Delete(sessionID); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	c.Cookie(s.cookie("", -1))

	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the identity of the session.
func (s *Service) Me(c *fiber.Ctx) error {
	return c.JSON(auth.IdentityFromContext(c))
}

func (s *Service) cookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     session.CookieName,
		Value:    value,
		MaxAge:   maxAge,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func failureReason(err error) string {
	var groupErr *auth.UnauthorizedGroupError

	switch {
	case errors.As(err, &groupErr):
		return "unmapped groups: " + strings.Join(groupErr.Groups, ", ")
	case errors.Is(err, auth.ErrDirectoryUnavailable):
		return "directory rejected or unreachable"
	default:
		return "invalid credentials"
	}
}
