package handler

import (
	"github.com/gofiber/fiber/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
)

func SetupRoutes(app *fiber.App, h *Handlers, validator middleware.TokenValidator) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	public := v1.Group("/public/tenants/:tenantId")
	public.Post("/applications", h.Intake.SubmitPublic)
	public.Post("/magic-link", h.Auth.RequestMagicLink)

	auth := v1.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/magic-link", h.Auth.ExchangeMagicLink)

	protected := v1.Group("", middleware.AuthRequired(validator))
	staff := middleware.RequireStaff()
	admin := middleware.RequireRoles(domain.RoleAdmin)
	finance := middleware.RequireRoles(domain.RoleAdmin, domain.RoleTreasurer)

	portal := protected.Group("/portal", middleware.RequireRoles(domain.RoleApplicant))
	portal.Get("/case", h.Applicant.PortalCase)

	users := protected.Group("/users", staff)
	users.Get("/me", h.User.GetProfile)
	users.Get("/", h.User.List)
	users.Post("/", admin, h.User.Create)
	users.Patch("/:id/role", admin, h.User.ChangeRole)
	users.Delete("/:id", admin, h.User.Deactivate)

	applicants := protected.Group("/applicants")
	applicants.Post("/", middleware.RequireRoles(domain.RoleAdmin, domain.RoleCaseworker), h.Intake.SubmitStaff)
	applicants.Get("/", staff, h.Applicant.List)
	applicants.Get("/:id", staff, h.Applicant.Get)
	applicants.Put("/:id", staff, h.Applicant.Update)
	applicants.Patch("/:id", staff, h.Applicant.Update)
	applicants.Delete("/:id", admin, h.Applicant.Delete)
	applicants.Get("/:id/documents", h.Applicant.ListDocuments)
	applicants.Post("/:id/documents", h.Applicant.UploadDocuments)
	applicants.Delete("/:id/documents/:documentId", middleware.RequireRoles(domain.RoleAdmin, domain.RoleCaseworker), h.Applicant.DeleteDocument)
	applicants.Get("/:id/assignments", staff, h.Applicant.ListAssignments)
	applicants.Post("/:id/assignments", admin, h.Applicant.Assign)
	applicants.Delete("/:id/assignments/:userId", admin, h.Applicant.Unassign)
	applicants.Get("/:id/conversations", h.Conversation.ListForCase)

	grants := protected.Group("/grants", staff)
	grants.Post("/", h.Grant.Upsert)
	grants.Get("/", h.Grant.GetByApplicant)
	grants.Post("/:id/documents", finance, h.Grant.UploadDocuments)

	payments := protected.Group("/payments", staff)
	payments.Post("/", finance, h.Payment.Record)
	payments.Get("/", h.Payment.ListByGrant)
	payments.Patch("/:id/status", finance, h.Payment.UpdateStatus)

	notes := protected.Group("/cases/:caseId/notes", staff)
	notes.Get("/", h.CaseNote.List)
	notes.Post("/", h.CaseNote.Create)
	notes.Patch("/:noteId", h.CaseNote.Update)
	notes.Delete("/:noteId", h.CaseNote.Delete)

	conversations := protected.Group("/conversations")
	conversations.Post("/", h.Conversation.Create)
	conversations.Get("/", h.Conversation.List)
	conversations.Get("/:id", h.Conversation.Get)
	conversations.Get("/:id/messages", h.Conversation.Messages)
	conversations.Post("/:id/messages", h.Conversation.Send)
	conversations.Post("/:id/participants", staff, h.Conversation.AddParticipant)

	notifications := protected.Group("/notifications", staff)
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)

	audit := protected.Group("/audit", staff)
	audit.Get("/recent", h.Audit.GetRecentActivities)
	audit.Get("/", h.Audit.List)
	audit.Get("/:entityType/:entityId", h.Audit.ListForEntity)

	protected.Get("/dashboard/stats", staff, h.Dashboard.GetStats)
	protected.Get("/exports/payments.xlsx", finance, h.Export.ExportPayments)
}
