package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GrantStatus string

const (
	GrantPending  GrantStatus = "Pending"
	GrantApproved GrantStatus = "Approved"
	GrantRejected GrantStatus = "Rejected"
)

func (s GrantStatus) IsValid() bool {
	switch s {
	case GrantPending, GrantApproved, GrantRejected:
		return true
	default:
		return false
	}
}

// Grant holds the funding decision for a case. Only canonical fields exist
// here; legacy column names are handled by the migrate-legacy-grants command.
type Grant struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	TenantID         uuid.UUID        `json:"tenantId" db:"tenant_id"`
	ApplicantID      uuid.UUID        `json:"applicantId" db:"applicant_id"`
	GrantedAmount    *decimal.Decimal `json:"grantedAmount" db:"granted_amount"`
	NumberOfMonths   *int             `json:"numberOfMonths" db:"number_of_months"`
	Remarks          *string          `json:"remarks" db:"remarks"`
	Status           GrantStatus      `json:"status" db:"status"`
	CreatedBy        uuid.UUID        `json:"createdBy" db:"created_by"`
	UpdatedBy        uuid.UUID        `json:"updatedBy" db:"updated_by"`
	PaymentDocuments []Document       `json:"paymentDocuments" db:"-"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// UpsertGrantInput is the POST /grants body. AmountGranted and Notes are old
// client key names; Canonicalize folds them into the canonical fields.
type UpsertGrantInput struct {
	ApplicantID    uuid.UUID        `json:"applicantId"`
	GrantedAmount  *decimal.Decimal `json:"grantedAmount"`
	NumberOfMonths *int             `json:"numberOfMonths"`
	Remarks        *string          `json:"remarks"`
	Status         *string          `json:"status"`

	AmountGranted *decimal.Decimal `json:"amountGranted,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

func (in *UpsertGrantInput) Canonicalize() {
	if in.GrantedAmount == nil {
		in.GrantedAmount = in.AmountGranted
	}
	if in.Remarks == nil {
		in.Remarks = in.Notes
	}
	in.AmountGranted = nil
	in.Notes = nil
}

// RequestedStatus returns the supplied status when it is a valid grant status.
func (in UpsertGrantInput) RequestedStatus() (GrantStatus, bool) {
	if in.Status == nil {
		return "", false
	}
	s := GrantStatus(*in.Status)
	return s, s.IsValid()
}

// GrantFields names the grant fields present in the input, for permission checks.
func (in UpsertGrantInput) GrantFields() []string {
	var fields []string
	if in.GrantedAmount != nil {
		fields = append(fields, "grantedAmount")
	}
	if in.NumberOfMonths != nil {
		fields = append(fields, "numberOfMonths")
	}
	if in.Remarks != nil {
		fields = append(fields, "remarks")
	}
	return fields
}
