// middleware/auth.go
package middleware

import (
	"slices"
	"strings"

	"grudge-match-system/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	userIDLocal    = "user_id"
	userRolesLocal = "user_roles"
)

// UserContextMiddleware extracts the caller identity the gateway resolved.
// Every match route acts on behalf of a user, so a missing X-User-ID is 401.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			utils.L().Warn("[USER_CTX] X-User-ID missing", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(userIDLocal, userID)
		c.Locals(userRolesLocal, roles)

		utils.L().Debug("[USER_CTX] caller resolved",
			zap.String("user_id", userID),
			zap.Strings("roles", roles),
			zap.String("path", c.Path()),
		)
		return c.Next()
	}
}

// CurrentUserID returns the caller set by UserContextMiddleware, or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}

// CurrentUserRoles returns the caller's gateway roles.
func CurrentUserRoles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(userRolesLocal).([]string)
	return roles
}

// RequireRole rejects callers whose gateway roles do not include role. It
// must run after UserContextMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !slices.Contains(CurrentUserRoles(c), role) {
			utils.L().Warn("[USER_CTX] role required",
				zap.String("user_id", CurrentUserID(c)),
				zap.String("role", role),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": role + " role required"})
		}
		return c.Next()
	}
}
