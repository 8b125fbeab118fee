package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/auth"
	"rahmah-exchange/internal/service/intake"
)

type AuthHandler struct {
	authService   auth.Service
	intakeService intake.Service
}

func NewAuthHandler(authService auth.Service, intakeService intake.Service) *AuthHandler {
	return &AuthHandler{authService: authService, intakeService: intakeService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, tokens, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":         user,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    tokens.ExpiresIn,
	})
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input domain.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	tokens, err := h.authService.RefreshToken(c.UserContext(), input.RefreshToken)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input domain.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.authService.Logout(c.UserContext(), input.RefreshToken); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExchangeMagicLink turns the token from a portal email into an applicant
// access token.
func (h *AuthHandler) ExchangeMagicLink(c *fiber.Ctx) error {
	var input domain.MagicLinkInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if input.Token == "" {
		return middleware.BadRequest("token is required")
	}

	applicant, tokens, err := h.authService.ExchangeMagicLink(c.UserContext(), input.Token)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"applicant":   applicant,
		"accessToken": tokens.AccessToken,
		"expiresIn":   tokens.ExpiresIn,
	})
}

func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	tenantID, err := paramUUID(c, "tenantId", "organization ID")
	if err != nil {
		return err
	}

	var input domain.MagicLinkRequestInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.intakeService.ReissueMagicLink(c.UserContext(), tenantID, input.Email); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If an application exists for this email, a new link has been sent",
	})
}
