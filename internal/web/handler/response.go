package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
)

// Error writes a JSON error response.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// StoreError maps an acl error to its HTTP status and writes it. Unexpected errors are logged
// and answered with 500.
func StoreError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, acl.ErrRoleNotFound), errors.Is(err, acl.ErrAssignmentNotFound):
		return Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, acl.ErrRoleExists), errors.Is(err, acl.ErrAssignmentRevoked):
		return Error(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, acl.ErrSystemRole):
		return Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, acl.ErrUnknownPermission),
		errors.Is(err, acl.ErrUserIDEmpty),
		errors.Is(err, acl.ErrRoleIDEmpty),
		errors.Is(err, acl.ErrHierarchyCycle):
		return Error(c, fiber.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return Error(c, fiber.StatusInternalServerError, ErrInternal)
	}
}

// Bind decodes the request body into req and validates it. It writes the 400 response itself and
// returns false when the request is unusable.
func Bind(c *fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, Error(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	if err := v.Struct(req); err != nil {
		return false, Error(c, fiber.StatusBadRequest, ErrValidationPrefix+err.Error())
	}

	return true, nil
}

// Valid reports whether deps can serve routes.
func (d *Deps) Valid() bool {
	return d != nil && d.Store != nil && d.Validator != nil
}
