package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CaseStatus string

const (
	StatusPending          CaseStatus = "Pending"
	StatusInReview         CaseStatus = "In Review"
	StatusNeedInfo         CaseStatus = "Need Info"
	StatusReadyForApproval CaseStatus = "Ready for Approval"
	StatusApproved         CaseStatus = "Approved"
	StatusRejected         CaseStatus = "Rejected"
)

var AllCaseStatuses = []CaseStatus{
	StatusPending,
	StatusInReview,
	StatusNeedInfo,
	StatusReadyForApproval,
	StatusApproved,
	StatusRejected,
}

func (s CaseStatus) IsValid() bool {
	for _, v := range AllCaseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s CaseStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Applicant is a Case: one application for assistance.
type Applicant struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	TenantID uuid.UUID  `json:"tenantId" db:"tenant_id"`
	CaseID   string     `json:"caseId" db:"case_id"`
	Status   CaseStatus `json:"status" db:"status"`

	FirstName     string  `json:"firstName" db:"first_name"`
	LastName      string  `json:"lastName" db:"last_name"`
	Email         string  `json:"email" db:"email"`
	Phone         *string `json:"phone,omitempty" db:"phone"`
	StreetAddress *string `json:"streetAddress,omitempty" db:"street_address"`
	City          *string `json:"city,omitempty" db:"city"`
	State         *string `json:"state,omitempty" db:"state"`
	ZipCode       *string `json:"zipCode,omitempty" db:"zip_code"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Gender        *string `json:"gender,omitempty" db:"gender"`
	MaritalStatus *string `json:"maritalStatus,omitempty" db:"marital_status"`
	HouseholdSize *int    `json:"householdSize,omitempty" db:"household_size"`
	Dependents    *int    `json:"dependents,omitempty" db:"dependents"`

	EmploymentStatus *string          `json:"employmentStatus,omitempty" db:"employment_status"`
	EmployerName     *string          `json:"employerName,omitempty" db:"employer_name"`
	MonthlyIncome    *decimal.Decimal `json:"monthlyIncome,omitempty" db:"monthly_income"`
	MonthlyExpenses  *decimal.Decimal `json:"monthlyExpenses,omitempty" db:"monthly_expenses"`
	TotalDebt        *decimal.Decimal `json:"totalDebt,omitempty" db:"total_debt"`

	RequestType    *string          `json:"requestType,omitempty" db:"request_type"`
	RequestAmount  *decimal.Decimal `json:"requestAmount,omitempty" db:"request_amount"`
	RequestReason  *string          `json:"requestReason,omitempty" db:"request_reason"`
	ReferenceName  *string          `json:"referenceName,omitempty" db:"reference_name"`
	ReferencePhone *string          `json:"referencePhone,omitempty" db:"reference_phone"`

	IsOldCase           bool       `json:"isOldCase" db:"is_old_case"`
	MagicTokenHash      *string    `json:"-" db:"magic_token_hash"`
	MagicTokenExpiresAt *time.Time `json:"-" db:"magic_token_expires_at"`

	Documents []Document `json:"documents" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (a *Applicant) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

type ApplicantFilter struct {
	Status *CaseStatus
	Search string
}

// CreateApplicantInput is the intake payload.
type CreateApplicantInput struct {
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            *string          `json:"phone"`
	StreetAddress    *string          `json:"streetAddress"`
	City             *string          `json:"city"`
	State            *string          `json:"state"`
	ZipCode          *string          `json:"zipCode"`
	DateOfBirth      *string          `json:"dateOfBirth"`
	Gender           *string          `json:"gender"`
	MaritalStatus    *string          `json:"maritalStatus"`
	HouseholdSize    *int             `json:"householdSize"`
	Dependents       *int             `json:"dependents"`
	EmploymentStatus *string          `json:"employmentStatus"`
	EmployerName     *string          `json:"employerName"`
	MonthlyIncome    *decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses  *decimal.Decimal `json:"monthlyExpenses"`
	TotalDebt        *decimal.Decimal `json:"totalDebt"`
	RequestType      *string          `json:"requestType"`
	RequestAmount    *decimal.Decimal `json:"requestAmount"`
	RequestReason    *string          `json:"requestReason"`
	ReferenceName    *string          `json:"referenceName"`
	ReferencePhone   *string          `json:"referencePhone"`

	SkipEmail bool `json:"skipEmail"`
	IsOldCase bool `json:"isOldCase"`
}

// Silent reports whether intake notifications must be suppressed.
func (in CreateApplicantInput) Silent() bool {
	return in.SkipEmail || in.IsOldCase
}
