package domain

import (
	"time"

	"github.com/google/uuid"
)

type CaseAssignment struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenantId" db:"tenant_id"`
	ApplicantID  uuid.UUID  `json:"applicantId" db:"applicant_id"`
	UserID       uuid.UUID  `json:"userId" db:"user_id"`
	AssignedBy   uuid.UUID  `json:"assignedBy" db:"assigned_by"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	AssignedAt   time.Time  `json:"assignedAt" db:"assigned_at"`
	UnassignedAt *time.Time `json:"unassignedAt,omitempty" db:"unassigned_at"`
	UserName     *string    `json:"userName,omitempty" db:"user_name"`
	UserEmail    *string    `json:"userEmail,omitempty" db:"user_email"`
}

type AssignCaseInput struct {
	UserID uuid.UUID `json:"userId"`
}
