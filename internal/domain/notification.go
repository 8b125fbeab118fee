package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	TenantID  uuid.UUID        `json:"tenantId" db:"tenant_id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      json.RawMessage  `json:"data,omitempty" db:"data"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	ReadAt    *time.Time       `json:"readAt,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

type NotificationType string

const (
	NotifCaseSubmitted   NotificationType = "CASE_SUBMITTED"
	NotifPaymentRequired NotificationType = "PAYMENT_REQUIRED"
	NotifCaseRejected    NotificationType = "CASE_REJECTED"
	NotifCaseStatus      NotificationType = "CASE_STATUS"
	NotifNewMessage      NotificationType = "NEW_MESSAGE"
	NotifCaseAssigned    NotificationType = "CASE_ASSIGNED"
	NotifMagicLink       NotificationType = "MAGIC_LINK"
)

// EmailMessage is a rendered email ready for the delivery transport.
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}
