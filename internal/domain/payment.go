package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentCancelled:
		return true
	default:
		return false
	}
}

type PaymentRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenantId" db:"tenant_id"`
	GrantID       uuid.UUID       `json:"grantId" db:"grant_id"`
	ApplicantID   uuid.UUID       `json:"applicantId" db:"applicant_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod string          `json:"paymentMethod" db:"payment_method"`
	PaymentDate   time.Time       `json:"paymentDate" db:"payment_date"`
	Status        PaymentStatus   `json:"status" db:"status"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	ProofFileName *string         `json:"proofFileName,omitempty" db:"proof_file_name"`
	ProofURL      *string         `json:"proofUrl,omitempty" db:"proof_url"`
	ProofStored   *string         `json:"-" db:"proof_stored_name"`
	RecordedBy    uuid.UUID       `json:"recordedBy" db:"recorded_by"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

type CreatePaymentInput struct {
	GrantID       uuid.UUID       `json:"grantId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentDate   string          `json:"paymentDate"`
	Status        string          `json:"status"`
	Notes         *string         `json:"notes"`
}

type UpdatePaymentStatusInput struct {
	Status string `json:"status"`
}

// PaymentExportRow is one line of the payments spreadsheet.
type PaymentExportRow struct {
	CaseID        string          `db:"case_id"`
	ApplicantName string          `db:"applicant_name"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod string          `db:"payment_method"`
	PaymentDate   time.Time       `db:"payment_date"`
	Status        string          `db:"status"`
	RecordedBy    string          `db:"recorded_by_name"`
}

// GrantExportRow is one line of the grants spreadsheet.
type GrantExportRow struct {
	CaseID         string           `db:"case_id"`
	ApplicantName  string           `db:"applicant_name"`
	GrantedAmount  *decimal.Decimal `db:"granted_amount"`
	NumberOfMonths *int             `db:"number_of_months"`
	Status         string           `db:"status"`
	TotalPaid      decimal.Decimal  `db:"total_paid"`
	UpdatedAt      time.Time        `db:"updated_at"`
}
