package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a charitable organization whose staff and cases are isolated
// from every other tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Locale    string    `json:"locale" db:"locale"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
