package middleware

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
)

func RequireRoles(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return Unauthorized("User not authenticated")
		}

		if !actor.HasAnyRole(roles...) {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}

// RequireStaff rejects applicant portal tokens.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return Unauthorized("User not authenticated")
		}

		if !actor.IsStaff() {
			return Forbidden("Staff access only")
		}

		return c.Next()
	}
}
