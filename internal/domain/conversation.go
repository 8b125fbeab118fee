package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantKind string

const (
	ParticipantStaff     ParticipantKind = "staff"
	ParticipantApplicant ParticipantKind = "applicant"
)

type Conversation struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	TenantID     uuid.UUID     `json:"tenantId" db:"tenant_id"`
	ApplicantID  uuid.UUID     `json:"applicantId" db:"applicant_id"`
	Subject      string        `json:"subject" db:"subject"`
	CreatedBy    uuid.UUID     `json:"createdBy" db:"created_by"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

type Participant struct {
	ConversationID uuid.UUID       `json:"conversationId" db:"conversation_id"`
	ParticipantID  uuid.UUID       `json:"participantId" db:"participant_id"`
	Kind           ParticipantKind `json:"kind" db:"kind"`
	Role           Role            `json:"role" db:"role"`
	JoinedAt       time.Time       `json:"joinedAt" db:"joined_at"`
}

type Message struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ConversationID uuid.UUID       `json:"conversationId" db:"conversation_id"`
	SenderID       uuid.UUID       `json:"senderId" db:"sender_id"`
	SenderKind     ParticipantKind `json:"senderKind" db:"sender_kind"`
	SenderRole     Role            `json:"senderRole" db:"sender_role"`
	SenderName     string          `json:"senderName" db:"sender_name"`
	Body           string          `json:"body" db:"body"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

type CreateConversationInput struct {
	ApplicantID uuid.UUID `json:"applicantId"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
}

type SendMessageInput struct {
	Body string `json:"body"`
}

type AddParticipantInput struct {
	UserID uuid.UUID `json:"userId"`
}
