package handler

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/applicant"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/workflow"
)

type ApplicantHandler struct {
	applicantService applicant.Service
	workflowService  workflow.Service
	documentService  document.Service
}

func NewApplicantHandler(applicantService applicant.Service, workflowService workflow.Service, documentService document.Service) *ApplicantHandler {
	return &ApplicantHandler{
		applicantService: applicantService,
		workflowService:  workflowService,
		documentService:  documentService,
	}
}

func (h *ApplicantHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	filter := domain.ApplicantFilter{Search: c.Query("search")}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := domain.CaseStatus(status)
		filter.Status = &s
	}

	result, err := h.applicantService.List(c.UserContext(), actor, filter, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ApplicantHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	a, err := h.applicantService.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}

// PortalCase returns the applicant's own case.
func (h *ApplicantHandler) PortalCase(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if actor.ApplicantID == nil {
		return middleware.Forbidden("Portal access only")
	}

	a, err := h.applicantService.Get(c.UserContext(), actor, actor.ApplicantID.String())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}

// Update applies a partial case update. Field names, types and the caller's
// role are checked by the workflow service.
func (h *ApplicantHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if len(raw) == 0 {
		return middleware.BadRequest("No fields to update")
	}

	a, err := h.workflowService.UpdateApplicant(c.UserContext(), actor, c.Params("id"), raw)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *ApplicantHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := h.applicantService.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ApplicantHandler) ListDocuments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	docs, err := h.documentService.ListCaseDocuments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(docs)
}

func (h *ApplicantHandler) UploadDocuments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
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

	docs, err := h.documentService.UploadCaseDocuments(c.UserContext(), actor, c.Params("id"), uploads)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(docs)
}

func (h *ApplicantHandler) DeleteDocument(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	documentID, err := paramUUID(c, "documentId", "document ID")
	if err != nil {
		return err
	}

	if err := h.documentService.DeleteCaseDocument(c.UserContext(), actor, c.Params("id"), documentID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ApplicantHandler) ListAssignments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	assignments, err := h.applicantService.ListAssignments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(assignments)
}

func (h *ApplicantHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.AssignCaseInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	assignment, err := h.applicantService.Assign(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (h *ApplicantHandler) Unassign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramUUID(c, "userId", "user ID")
	if err != nil {
		return err
	}

	if err := h.applicantService.Unassign(c.UserContext(), actor, c.Params("id"), userID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
