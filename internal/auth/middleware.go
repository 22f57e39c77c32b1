package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// LocalsIdentity is the fiber.Locals key the session middleware stores the identity under.
const LocalsIdentity = "identity"

// IdentityFromContext returns the identity of the current request, nil if anonymous.
func IdentityFromContext(c *fiber.Ctx) *Identity {
	id, ok := c.Locals(LocalsIdentity).(*Identity)
	if !ok {
		return nil
	}

	return id
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFromContext(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		return c.Next()
	}
}

// RequireModule creates Fiber middleware that requires level on module.
func RequireModule(engine *Engine, module document.Module, level document.AccessLevel) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFromContext(c)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if err := engine.Require(id, module, level); err != nil {
			log.Warn().Str("user", id.Username).Str("role", id.Role).Str("module", string(module)).
				Int("level", int(level)).Msg("user lacks required module access")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		return c.Next()
	}
}
