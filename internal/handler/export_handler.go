package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/service/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	exportSvc export.Service
}

func NewExportHandler(exportSvc export.Service) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

func (h *ExportHandler) ExportPayments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	data, err := h.exportSvc.PaymentsWorkbook(c.UserContext(), actor)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	c.Set(fiber.HeaderContentType, xlsxContentType)

	return c.Send(data)
}
