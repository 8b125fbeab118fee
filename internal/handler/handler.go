package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/service"
	"rahmah-exchange/internal/service/document"
)

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Intake       *IntakeHandler
	Applicant    *ApplicantHandler
	Grant        *GrantHandler
	Payment      *PaymentHandler
	CaseNote     *CaseNoteHandler
	Conversation *ConversationHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth, services.Intake),
		User:         NewUserHandler(services.User),
		Intake:       NewIntakeHandler(services.Intake),
		Applicant:    NewApplicantHandler(services.Applicant, services.Workflow, services.Document),
		Grant:        NewGrantHandler(services.Workflow, services.Document),
		Payment:      NewPaymentHandler(services.Payment),
		CaseNote:     NewCaseNoteHandler(services.CaseNote),
		Conversation: NewConversationHandler(services.Messaging),
		Notification: NewNotificationHandler(services.Notification),
		Audit:        NewAuditHandler(services.Audit),
		Dashboard:    NewDashboardHandler(services.Dashboard),
		Export:       NewExportHandler(services.Export),
	}
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return domain.Actor{}, middleware.Unauthorized("User not authenticated")
	}
	return actor, nil
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("pageSize", 20); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func paramUUID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + label)
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, middleware.BadRequest(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + label)
	}
	return id, nil
}

// formUploads opens every file under field. The returned closer must run
// once the uploads have been consumed.
func formUploads(c *fiber.Ctx, field string) ([]document.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, middleware.BadRequest("Invalid multipart form")
	}
	return openFiles(form.File[field])
}

func openFiles(headers []*multipart.FileHeader) ([]document.Upload, func(), error) {
	var files []io.Closer
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]document.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, middleware.BadRequest("Failed to read file " + fh.Filename)
		}
		files = append(files, f)

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		uploads = append(uploads, document.Upload{
			FileName: fh.Filename,
			Size:     fh.Size,
			MimeType: mimeType,
			Reader:   f,
		})
	}
	return uploads, closeAll, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}
