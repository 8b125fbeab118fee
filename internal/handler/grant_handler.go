package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/workflow"
)

type GrantHandler struct {
	workflowService workflow.Service
	documentService document.Service
}

func NewGrantHandler(workflowService workflow.Service, documentService document.Service) *GrantHandler {
	return &GrantHandler{workflowService: workflowService, documentService: documentService}
}

// Upsert creates the case grant, or updates it when one exists. Legacy
// amountGranted and notes keys are accepted.
func (h *GrantHandler) Upsert(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.UpsertGrantInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	grant, created, err := h.workflowService.UpsertGrant(c.UserContext(), actor, input)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(grant)
}

func (h *GrantHandler) GetByApplicant(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	applicantID, err := queryUUID(c, "applicantId", "applicant ID")
	if err != nil {
		return err
	}

	grant, err := h.workflowService.GetGrant(c.UserContext(), actor, applicantID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(grant)
}

func (h *GrantHandler) UploadDocuments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	grantID, err := paramUUID(c, "id", "grant ID")
	if err != nil {
		return err
	}

	uploads, closeFiles, err := formUploads(c, "documents")
	if err != nil {
		return err
	}
	defer closeFiles()
	if len(uploads) == 0 {
		return middleware.BadRequest("At least one document is required")
	}

	docs, err := h.documentService.UploadGrantDocuments(c.UserContext(), actor, grantID, uploads)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(docs)
}
