package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	coreauth "github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	fiberlogger "github.com/GoFMG-Admin/GoFMG-Admin/internal/logger/adapter/fiber"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/session"
)

// Middleware loads the identity of the session cookie into fiber.Locals.
func Middleware(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return c.Next()
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error().Err(err).Msg("failed to read session")
		}

		return c.Next()
	}

	if sessData.Identity.Username == "" {
		return c.Next()
	}

	id := sessData.Identity
	c.Locals(coreauth.LocalsIdentity, &id)
	c.Locals(fiberlogger.LocalsUser, id.Username)

	return c.Next()
}
