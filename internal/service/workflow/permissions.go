package workflow

import (
	"fmt"

	"rahmah-exchange/internal/domain"
)

const (
	FieldGrantedAmount  = "grantedAmount"
	FieldNumberOfMonths = "numberOfMonths"
	FieldRemarks        = "remarks"
)

var statusPermissions = map[domain.Role][]domain.CaseStatus{
	domain.RoleCaseworker: {
		domain.StatusPending, domain.StatusInReview, domain.StatusNeedInfo, domain.StatusReadyForApproval,
	},
	domain.RoleAdmin: {
		domain.StatusPending, domain.StatusInReview, domain.StatusNeedInfo, domain.StatusReadyForApproval,
		domain.StatusApproved, domain.StatusRejected,
	},
	domain.RoleApprover: {
		domain.StatusPending, domain.StatusInReview, domain.StatusReadyForApproval,
		domain.StatusApproved, domain.StatusRejected,
	},
	domain.RoleTreasurer: {
		domain.StatusApproved,
	},
}

var grantFieldPermissions = map[string][]domain.Role{
	FieldGrantedAmount:  {domain.RoleApprover, domain.RoleAdmin},
	FieldNumberOfMonths: {domain.RoleCaseworker, domain.RoleAdmin},
	FieldRemarks:        {domain.RoleCaseworker, domain.RoleApprover, domain.RoleAdmin},
}

var grantStatusPermissions = map[domain.GrantStatus][]domain.Role{
	domain.GrantPending:  {domain.RoleCaseworker, domain.RoleAdmin, domain.RoleApprover},
	domain.GrantApproved: {domain.RoleAdmin, domain.RoleApprover, domain.RoleTreasurer},
	domain.GrantRejected: {domain.RoleAdmin, domain.RoleApprover},
}

// CanTransition reports whether role may set a case to status. Roles missing
// from the table, super_admin and applicant included, may set nothing.
func CanTransition(role domain.Role, status domain.CaseStatus) bool {
	for _, s := range statusPermissions[role] {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedStatuses lists the statuses role may assign, in workflow order.
func AllowedStatuses(role domain.Role) []domain.CaseStatus {
	allowed := statusPermissions[role]
	out := make([]domain.CaseStatus, len(allowed))
	copy(out, allowed)
	return out
}

func CanSetGrantField(role domain.Role, field string) bool {
	return hasRole(grantFieldPermissions[field], role)
}

func CanSetGrantStatus(role domain.Role, status domain.GrantStatus) bool {
	return hasRole(grantStatusPermissions[status], role)
}

// CanEditCaseData reports whether role may change the applicant's own
// fields (name, address, income and so on).
func CanEditCaseData(role domain.Role) bool {
	return role == domain.RoleCaseworker || role == domain.RoleAdmin
}

// AuthorizeCaseUpdate checks a parsed case patch against the role tables. A
// patch of exactly {status} is judged on the status alone, which is how
// approvers and treasurers move cases they cannot otherwise edit.
func AuthorizeCaseUpdate(role domain.Role, patch domain.ApplicantPatch) error {
	if patch.HasCaseData() && !CanEditCaseData(role) {
		return fmt.Errorf("%w: role %s may not edit case fields %v", domain.ErrForbidden, role, patch.Keys)
	}
	if patch.Status != nil && !CanTransition(role, *patch.Status) {
		return fmt.Errorf("%w: role %s may not set status %q", domain.ErrForbidden, role, *patch.Status)
	}
	return nil
}

// AuthorizeGrantUpsert checks every grant field present in the input and the
// requested status when it is a valid grant status.
func AuthorizeGrantUpsert(role domain.Role, in domain.UpsertGrantInput) error {
	for _, field := range in.GrantFields() {
		if !CanSetGrantField(role, field) {
			return fmt.Errorf("%w: role %s may not set %s", domain.ErrForbidden, role, field)
		}
	}
	if status, ok := in.RequestedStatus(); ok && !CanSetGrantStatus(role, status) {
		return fmt.Errorf("%w: role %s may not set grant status %q", domain.ErrForbidden, role, status)
	}
	return nil
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
