package handler

import (
	"encoding/json"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/payment"
)

type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentService payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Record accepts JSON, or multipart with a "payload" JSON field and an
// optional "proof" file.
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var input domain.CreatePaymentInput
	var proof *document.Upload

	if isMultipart(c) {
		if err := json.Unmarshal([]byte(c.FormValue("payload")), &input); err != nil {
			return middleware.BadRequest("Invalid payload")
		}

		if fh, err := c.FormFile("proof"); err == nil {
			uploads, closeFiles, err := openFiles([]*multipart.FileHeader{fh})
			if err != nil {
				return err
			}
			defer closeFiles()
			proof = &uploads[0]
		}
	} else if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	record, err := h.paymentService.Record(c.UserContext(), actor, input, proof)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *PaymentHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	paymentID, err := paramUUID(c, "id", "payment ID")
	if err != nil {
		return err
	}

	var input domain.UpdatePaymentStatusInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	record, err := h.paymentService.UpdateStatus(c.UserContext(), actor, paymentID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *PaymentHandler) ListByGrant(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	grantID, err := queryUUID(c, "grantId", "grant ID")
	if err != nil {
		return err
	}

	records, err := h.paymentService.ListByGrant(c.UserContext(), actor, grantID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(records)
}
