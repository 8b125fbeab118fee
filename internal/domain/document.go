package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	DocumentCase         DocumentKind = "case"
	DocumentGrantPayment DocumentKind = "grant_payment"
)

// Document is the metadata of an uploaded file. The bytes live in the
// object store under StoredName.
type Document struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	TenantID    uuid.UUID    `json:"tenantId" db:"tenant_id"`
	ApplicantID uuid.UUID    `json:"applicantId" db:"applicant_id"`
	GrantID     *uuid.UUID   `json:"grantId,omitempty" db:"grant_id"`
	Kind        DocumentKind `json:"kind" db:"kind"`
	FileName    string       `json:"filename" db:"file_name"`
	StoredName  string       `json:"storedName" db:"stored_name"`
	URL         string       `json:"url" db:"url"`
	Size        int64        `json:"size" db:"size"`
	MimeType    string       `json:"mimeType" db:"mime_type"`
	UploadedBy  *uuid.UUID   `json:"uploadedBy,omitempty" db:"uploaded_by"`
	UploadedAt  time.Time    `json:"uploadedAt" db:"uploaded_at"`
}

// StoredFile is what the object store hands back after an upload.
type StoredFile struct {
	URL        string
	StoredName string
	FileName   string
	Size       int64
	MimeType   string
}

func (f StoredFile) Document(tenantID, applicantID uuid.UUID, kind DocumentKind, uploadedBy *uuid.UUID) Document {
	return Document{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ApplicantID: applicantID,
		Kind:        kind,
		FileName:    f.FileName,
		StoredName:  f.StoredName,
		URL:         f.URL,
		Size:        f.Size,
		MimeType:    f.MimeType,
		UploadedBy:  uploadedBy,
	}
}
