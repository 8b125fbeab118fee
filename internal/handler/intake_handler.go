package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/intake"
)

type IntakeHandler struct {
	intakeService intake.Service
}

func NewIntakeHandler(intakeService intake.Service) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// SubmitPublic accepts an application from the public form. The body is JSON,
// or multipart with a "payload" JSON field and "documents" files.
func (h *IntakeHandler) SubmitPublic(c *fiber.Ctx) error {
	tenantID, err := paramUUID(c, "tenantId", "organization ID")
	if err != nil {
		return err
	}
	return h.submit(c, tenantID, nil)
}

// SubmitStaff back-fills a case on behalf of an applicant.
func (h *IntakeHandler) SubmitStaff(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	return h.submit(c, actor.TenantID, &actor)
}

func (h *IntakeHandler) submit(c *fiber.Ctx, tenantID uuid.UUID, actor *domain.Actor) error {
	var input domain.CreateApplicantInput
	var uploads []document.Upload

	if isMultipart(c) {
		payload := c.FormValue("payload")
		if payload == "" {
			return middleware.BadRequest("payload is required")
		}
		if err := json.Unmarshal([]byte(payload), &input); err != nil {
			return middleware.BadRequest("Invalid payload")
		}

		files, closeFiles, err := formUploads(c, "documents")
		if err != nil {
			return err
		}
		defer closeFiles()
		uploads = files
	} else if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	applicant, err := h.intakeService.Submit(c.UserContext(), tenantID, actor, input, uploads)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     applicant.ID,
		"caseId": applicant.CaseID,
		"status": applicant.Status,
	})
}
