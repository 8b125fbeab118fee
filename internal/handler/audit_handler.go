package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) GetRecentActivities(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	logs, err := h.auditService.GetRecentActivities(c.UserContext(), actor, c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(logs)
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	result, err := h.auditService.List(c.UserContext(), actor, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuditHandler) ListForEntity(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	entityID, err := paramUUID(c, "entityId", "entity ID")
	if err != nil {
		return err
	}

	result, err := h.auditService.ListForEntity(c.UserContext(), actor, c.Params("entityType"), entityID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
