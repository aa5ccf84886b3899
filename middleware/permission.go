package middleware

import (
	"planvite/models"
	"planvite/permissions"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireEventPermission re-derives the caller's role and permission set from
// the server-side identity and the :orgID route parameter before any handler
// runs. This check is the security boundary: route-level gating in clients is
// a usability feature only, and nothing from the request body is trusted for
// authorization. A failed resolution is a plain 403, never an error.
func RequireEventPermission(engine *permissions.Engine, perms ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
		}

		orgID := utils.ParseUint(c.Params("orgID"))
		if orgID == 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid organization ID", nil)
		}

		if !engine.HasAllEventPermissions(c.Context(), user.ID, orgID, perms) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", nil)
		}

		c.Locals("orgID", orgID)
		return c.Next()
	}
}

// RequireSystemPermission guards organization administration endpoints with a
// system-scoped token. Same fail-closed semantics as RequireEventPermission.
func RequireSystemPermission(engine *permissions.Engine, token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
		}

		orgID := utils.ParseUint(c.Params("orgID"))
		if orgID == 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid organization ID", nil)
		}

		if !engine.HasSystemPermission(c.Context(), user.ID, orgID, token) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", nil)
		}

		c.Locals("orgID", orgID)
		return c.Next()
	}
}

// RequireMembership only verifies the caller has an active membership (any
// role) in the organization. Used for read endpoints gated by VIEW.
func RequireMembership(engine *permissions.Engine) fiber.Handler {
	return RequireEventPermission(engine, models.PermView)
}
