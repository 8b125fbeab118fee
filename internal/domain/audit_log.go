package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenantId" db:"tenant_id"`
	UserID     uuid.UUID       `json:"userId" db:"user_id"`
	UserName   *string         `json:"userName,omitempty" db:"user_name"`
	UserRole   Role            `json:"userRole" db:"user_role"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entityType" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entityId" db:"entity_id"`
	OldValue   json.RawMessage `json:"oldValue,omitempty" db:"old_value"`
	NewValue   json.RawMessage `json:"newValue,omitempty" db:"new_value"`
	IPAddress  *string         `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent  *string         `json:"userAgent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

type CreateAuditLogInput struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uuid.UUID
	OldValue   interface{}
	NewValue   interface{}
	IPAddress  *string
	UserAgent  *string
}

const (
	AuditCaseUpdated       = "CASE_UPDATED"
	AuditCaseStatusChanged = "CASE_STATUS_CHANGED"
	AuditCaseDeleted       = "CASE_DELETED"
	AuditGrantUpserted     = "GRANT_UPSERTED"
	AuditPaymentRecorded   = "PAYMENT_RECORDED"
	AuditPaymentStatus     = "PAYMENT_STATUS_CHANGED"
	AuditNoteDeleted       = "NOTE_DELETED"
	AuditCaseAssigned      = "CASE_ASSIGNED"
	AuditCaseUnassigned    = "CASE_UNASSIGNED"
)

type requestMetaKey struct{}

// RequestMeta carries the caller's network details into audit rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
