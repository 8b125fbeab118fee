package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/messaging"
)

type ConversationHandler struct {
	messagingService messaging.Service
}

func NewConversationHandler(messagingService messaging.Service) *ConversationHandler {
	return &ConversationHandler{messagingService: messagingService}
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.CreateConversationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	conv, err := h.messagingService.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	result, err := h.messagingService.ListMine(c.UserContext(), actor, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ConversationHandler) ListForCase(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	convs, err := h.messagingService.ListForCase(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(convs)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conversationID, err := paramUUID(c, "id", "conversation ID")
	if err != nil {
		return err
	}

	conv, err := h.messagingService.Get(c.UserContext(), actor, conversationID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(conv)
}

func (h *ConversationHandler) Messages(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conversationID, err := paramUUID(c, "id", "conversation ID")
	if err != nil {
		return err
	}

	result, err := h.messagingService.Messages(c.UserContext(), actor, conversationID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ConversationHandler) Send(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conversationID, err := paramUUID(c, "id", "conversation ID")
	if err != nil {
		return err
	}

	var input domain.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	msg, err := h.messagingService.Send(c.UserContext(), actor, conversationID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ConversationHandler) AddParticipant(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conversationID, err := paramUUID(c, "id", "conversation ID")
	if err != nil {
		return err
	}

	var input domain.AddParticipantInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.messagingService.AddParticipant(c.UserContext(), actor, conversationID, input); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
