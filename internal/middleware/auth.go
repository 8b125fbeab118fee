package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/service/auth"
)

const ActorContextKey = "actor"

// TokenValidator verifies access tokens. auth.Service satisfies it.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Unauthorized("Invalid authorization header format")
		}

		claims, err := validator.ValidateAccessToken(parts[1])
		if err != nil {
			return Unauthorized("Invalid or expired token")
		}

		c.Locals(ActorContextKey, claims.Actor())
		return c.Next()
	}
}

// GetActor returns the authenticated caller. Handlers behind AuthRequired
// always have one.
func GetActor(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(ActorContextKey).(domain.Actor)
	return actor, ok
}
