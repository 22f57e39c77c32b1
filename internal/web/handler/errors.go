package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/store"
)

// ErrNilDeps is returned by Init when app or deps is missing.
var ErrNilDeps = errors.New(ErrNilACDFatalLogMsg)

// Status maps a service error to the http status reported to the client.
func Status(err error) int {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, admin.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, admin.ErrExists),
		errors.Is(err, admin.ErrReservedProfile),
		errors.Is(err, admin.ErrProfileInUse),
		errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, admin.ErrInvalid),
		errors.Is(err, document.ErrInvalidDocument),
		errors.Is(err, document.ErrDuplicateProfile),
		errors.Is(err, document.ErrDuplicateAccount),
		errors.Is(err, document.ErrUnknownProfile):
		return fiber.StatusBadRequest
	case errors.Is(err, audit.ErrNotReadable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes err as json. Internal errors are logged and hidden from the client.
func Error(c *fiber.Ctx, err error) error {
	status := Status(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// BadRequest answers 400 with msg.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
