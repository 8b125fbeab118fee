package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldInt
	fieldMoney
)

type caseField struct {
	column   string
	kind     fieldKind
	required bool
}

// caseFields lists the case-data keys a staff PUT may carry, keyed by their
// JSON name.
var caseFields = map[string]caseField{
	"firstName":        {column: "first_name", kind: fieldText, required: true},
	"lastName":         {column: "last_name", kind: fieldText, required: true},
	"email":            {column: "email", kind: fieldText, required: true},
	"phone":            {column: "phone", kind: fieldText},
	"streetAddress":    {column: "street_address", kind: fieldText},
	"city":             {column: "city", kind: fieldText},
	"state":            {column: "state", kind: fieldText},
	"zipCode":          {column: "zip_code", kind: fieldText},
	"dateOfBirth":      {column: "date_of_birth", kind: fieldText},
	"gender":           {column: "gender", kind: fieldText},
	"maritalStatus":    {column: "marital_status", kind: fieldText},
	"householdSize":    {column: "household_size", kind: fieldInt},
	"dependents":       {column: "dependents", kind: fieldInt},
	"employmentStatus": {column: "employment_status", kind: fieldText},
	"employerName":     {column: "employer_name", kind: fieldText},
	"monthlyIncome":    {column: "monthly_income", kind: fieldMoney},
	"monthlyExpenses":  {column: "monthly_expenses", kind: fieldMoney},
	"totalDebt":        {column: "total_debt", kind: fieldMoney},
	"requestType":      {column: "request_type", kind: fieldText},
	"requestAmount":    {column: "request_amount", kind: fieldMoney},
	"requestReason":    {column: "request_reason", kind: fieldText},
	"referenceName":    {column: "reference_name", kind: fieldText},
	"referencePhone":   {column: "reference_phone", kind: fieldText},
}

var immutableCaseFields = map[string]bool{
	"id":        true,
	"tenantId":  true,
	"caseId":    true,
	"isOldCase": true,
	"documents": true,
	"createdAt": true,
	"updatedAt": true,
}

// ApplicantPatch is a validated partial update of a case.
type ApplicantPatch struct {
	Status *CaseStatus
	// Columns maps database column to the new value.
	Columns map[string]any
	// Keys holds the JSON keys of the case-data fields, sorted.
	Keys []string
}

func (p ApplicantPatch) HasCaseData() bool {
	return len(p.Columns) > 0
}

// StatusOnly reports whether the patch is exactly {status}.
func (p ApplicantPatch) StatusOnly() bool {
	return p.Status != nil && len(p.Columns) == 0
}

// ParseApplicantPatch validates a raw JSON object against the known case
// fields. Types are checked here; role checks happen in the workflow.
func ParseApplicantPatch(raw map[string]json.RawMessage) (ApplicantPatch, error) {
	patch := ApplicantPatch{Columns: map[string]any{}}

	if len(raw) == 0 {
		return patch, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	for key, value := range raw {
		if key == "status" {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("%w: status must be a string", ErrValidation)
			}
			status := CaseStatus(s)
			if !status.IsValid() {
				return patch, fmt.Errorf("%w: invalid status %q", ErrValidation, s)
			}
			patch.Status = &status
			continue
		}

		if immutableCaseFields[key] {
			return patch, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}

		field, ok := caseFields[key]
		if !ok {
			return patch, fmt.Errorf("%w: unknown field %q", ErrValidation, key)
		}

		v, err := decodeCaseField(key, field, value)
		if err != nil {
			return patch, err
		}
		patch.Columns[field.column] = v
		patch.Keys = append(patch.Keys, key)
	}

	sort.Strings(patch.Keys)
	return patch, nil
}

func decodeCaseField(key string, field caseField, value json.RawMessage) (any, error) {
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		if field.required {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, key)
		}
		return nil, nil
	}

	switch field.kind {
	case fieldInt:
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			return nil, fmt.Errorf("%w: %s must be a whole number", ErrValidation, key)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %s cannot be negative", ErrValidation, key)
		}
		return n, nil
	case fieldMoney:
		var d decimal.Decimal
		if err := json.Unmarshal(value, &d); err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", ErrValidation, key)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: %s cannot be negative", ErrValidation, key)
		}
		return d, nil
	default:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrValidation, key)
		}
		s = strings.TrimSpace(s)
		if field.required && s == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, key)
		}
		if key == "email" {
			s = strings.ToLower(s)
			if !strings.Contains(s, "@") {
				return nil, fmt.Errorf("%w: email is invalid", ErrValidation)
			}
		}
		return s, nil
	}
}
