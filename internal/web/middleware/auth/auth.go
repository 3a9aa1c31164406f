package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/session"
)

const (
	// LocalsUserID is the fiber local holding the authenticated user id.
	LocalsUserID = "userID"

	bearerPrefix = "bearer "

	msgUnauthorized = "unauthorized"
	msgForbidden    = "forbidden: missing permission"
)

// Middleware authenticates the bearer token of every request.
func Middleware(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		data, err := sessions.Read(token)
		if err != nil || data.UserID == "" {
			log.Debug().Err(err).Str("IP", c.IP()).Msg("rejected bearer token")
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		c.Locals(LocalsUserID, data.UserID)

		return c.Next()
	}
}

// BearerToken returns the token of the Authorization header, or "".
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) <= len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(h[len(bearerPrefix):])
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsUserID).(string)
	return id
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(store *acl.Store, permission acl.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		if !store.HasPermission(userID, permission) {
			log.Warn().Str("user_id", userID).Str("permission", string(permission)).
				Msg("User lacks required permission")

			return deny(c, fiber.StatusForbidden, msgForbidden)
		}

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(store *acl.Store, permissions ...acl.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		if !store.HasAnyPermission(userID, permissions...) {
			log.Warn().Str("user_id", userID).Strs("permissions", permissionStrings(permissions)).
				Msg("User lacks required permissions")

			return deny(c, fiber.StatusForbidden, msgForbidden)
		}

		return c.Next()
	}
}

// RequireAllPermissions creates Fiber middleware that requires all the given permissions.
func RequireAllPermissions(store *acl.Store, permissions ...acl.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		if !store.HasAllPermissions(userID, permissions...) {
			log.Warn().Str("user_id", userID).Strs("permissions", permissionStrings(permissions)).
				Msg("User lacks required permissions")

			return deny(c, fiber.StatusForbidden, msgForbidden)
		}

		return c.Next()
	}
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func permissionStrings(perms []acl.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}

	return out
}
