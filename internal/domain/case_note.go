package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NoteType string

const (
	NoteInternal     NoteType = "internal_note"
	NoteStatusUpdate NoteType = "status_update"
	NoteRequirement  NoteType = "requirement"
	NoteDecision     NoteType = "decision"
	NoteApproval     NoteType = "approval_note"
)

func (t NoteType) IsValid() bool {
	switch t {
	case NoteInternal, NoteStatusUpdate, NoteRequirement, NoteDecision, NoteApproval:
		return true
	default:
		return false
	}
}

type CaseNote struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	TenantID       uuid.UUID        `json:"tenantId" db:"tenant_id"`
	ApplicantID    uuid.UUID        `json:"applicantId" db:"applicant_id"`
	NoteType       NoteType         `json:"noteType" db:"note_type"`
	Content        string           `json:"content" db:"content"`
	ApprovalAmount *decimal.Decimal `json:"approvalAmount,omitempty" db:"approval_amount"`
	AuthorID       uuid.UUID        `json:"authorId" db:"author_id"`
	AuthorName     string           `json:"authorName" db:"author_name"`
	AuthorRole     Role             `json:"authorRole" db:"author_role"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

type CreateCaseNoteInput struct {
	NoteType       NoteType         `json:"noteType"`
	Content        string           `json:"content"`
	ApprovalAmount *decimal.Decimal `json:"approvalAmount"`
}

type UpdateCaseNoteInput struct {
	Content        *string          `json:"content"`
	ApprovalAmount *decimal.Decimal `json:"approvalAmount"`
}
