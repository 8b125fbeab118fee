package domain

import "github.com/google/uuid"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleCaseworker Role = "caseworker"
	RoleApprover   Role = "approver"
	RoleTreasurer  Role = "treasurer"
	RoleApplicant  Role = "applicant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleCaseworker, RoleApprover, RoleTreasurer, RoleApplicant:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role belongs to an organization user rather
// than an applicant.
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleApplicant
}

// Actor is the authenticated caller of a request. It is built once from the
// verified credential and passed explicitly into every service call.
type Actor struct {
	UserID      uuid.UUID
	Role        Role
	TenantID    uuid.UUID
	Name        string
	ApplicantID *uuid.UUID
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// OwnsApplicant reports whether an applicant actor is looking at their own case.
func (a Actor) OwnsApplicant(applicantID uuid.UUID) bool {
	return a.Role == RoleApplicant && a.ApplicantID != nil && *a.ApplicantID == applicantID
}

func (a Actor) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
