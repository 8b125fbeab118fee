package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	u, err := h.userService.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	u, err := h.userService.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	result, err := h.userService.List(c.UserContext(), actor, domain.Role(c.Query("role")), getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramUUID(c, "id", "user ID")
	if err != nil {
		return err
	}

	var input struct {
		Role domain.Role `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.userService.ChangeRole(c.UserContext(), actor, userID, input.Role); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Deactivate keeps the user row for history and blocks further logins.
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramUUID(c, "id", "user ID")
	if err != nil {
		return err
	}

	if err := h.userService.Deactivate(c.UserContext(), actor, userID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
