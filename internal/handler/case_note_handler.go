package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/casenote"
)

type CaseNoteHandler struct {
	noteService casenote.Service
}

func NewCaseNoteHandler(noteService casenote.Service) *CaseNoteHandler {
	return &CaseNoteHandler{noteService: noteService}
}

func (h *CaseNoteHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	result, err := h.noteService.List(c.UserContext(), actor, c.Params("caseId"), getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CaseNoteHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.CreateCaseNoteInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	note, err := h.noteService.Create(c.UserContext(), actor, c.Params("caseId"), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *CaseNoteHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	noteID, err := paramUUID(c, "noteId", "note ID")
	if err != nil {
		return err
	}

	var input domain.UpdateCaseNoteInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	note, err := h.noteService.Update(c.UserContext(), actor, c.Params("caseId"), noteID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(note)
}

func (h *CaseNoteHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	noteID, err := paramUUID(c, "noteId", "note ID")
	if err != nil {
		return err
	}

	if err := h.noteService.Delete(c.UserContext(), actor, c.Params("caseId"), noteID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
