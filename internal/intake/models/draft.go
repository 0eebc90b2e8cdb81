package models

import (
	"io"
	"time"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// Allowed attachment content types.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// AllowedContentTypes maps accepted attachment types to their canonical extension.
var AllowedContentTypes = map[string]string{
	ContentTypePDF:  "pdf",
	ContentTypeJPEG: "jpg",
	ContentTypePNG:  "png",
}

// Draft is the in-memory, not yet persisted application.
//
// Invariants (enforced by the validation schema, not the constructor):
//   - FullName has at least 2 characters
//   - Province is one of the ten provinces
//   - PreviousGrantUsage is required only while PreviousGrant is true
//   - exactly one Attachment within the variant ceiling
//   - Attestation is true
type Draft struct {
	ID      string
	Variant string

	FullName       string
	DateOfBirth    *time.Time
	IsForDependent *bool

	Street     string
	City       string
	Province   Province
	PostalCode string

	Email       string
	PhoneNumber string

	GrantRequestedDate *time.Time
	FundsUsage         string

	PreviousGrant      bool
	PreviousGrantUsage string

	Attachment *Attachment

	Attestation bool
}

// Attachment is the single supporting document of a draft.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}
