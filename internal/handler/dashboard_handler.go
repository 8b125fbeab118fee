package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/service/dashboard"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboardService.GetStats(c.UserContext(), actor)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
