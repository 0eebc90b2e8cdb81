// Package intaketest builds drafts and attachments for tests across the intake
// packages.
package intaketest

import (
	"bytes"
	"time"

	"grantintake/internal/intake/models"
)

// PDF returns an attachment of exactly size bytes tagged as a PDF. The content
// starts with a real PDF header so content sniffing agrees with the type.
func PDF(filename string, size int64) *models.Attachment {
	return attachment(filename, models.ContentTypePDF, []byte("%PDF-1.7\n"), size)
}

// PNG returns a PNG-tagged attachment of size bytes.
func PNG(filename string, size int64) *models.Attachment {
	return attachment(filename, models.ContentTypePNG, []byte("\x89PNG\r\n\x1a\n"), size)
}

// Text returns a text/plain attachment of size bytes.
func Text(filename string, size int64) *models.Attachment {
	return attachment(filename, "text/plain", []byte("hello"), size)
}

func attachment(filename, contentType string, header []byte, size int64) *models.Attachment {
	body := make([]byte, size)
	copy(body, header)
	return &models.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Content:     bytes.NewReader(body),
	}
}

// Date parses a YYYY-MM-DD date and panics on malformed input.
func Date(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// ValidDraft returns a draft that passes every rule of the standard variant.
// Callers mutate the returned value to exercise a single failure.
func ValidDraft() *models.Draft {
	dependent := false
	return &models.Draft{
		ID:                 "6f1d3c2e-8d55-4c0e-9d1e-3b7b1f0a9a10",
		Variant:            models.VariantStandard,
		FullName:           "Jane O'Neil Doe",
		DateOfBirth:        Date("1988-04-12"),
		IsForDependent:     &dependent,
		Street:             "123 Queen St W",
		City:               "Toronto",
		Province:           models.ProvinceOntario,
		PostalCode:         "m5h 2n2",
		Email:              "jane.doe@example.org",
		PhoneNumber:        "(416) 555-0123",
		GrantRequestedDate: Date("2026-11-01"),
		FundsUsage:         "Mobility equipment and home accessibility ramp.",
		PreviousGrant:      false,
		Attachment:         PDF("letter from doctor.pdf", 2*1000*1000),
		Attestation:        true,
	}
}

// FormValues returns the raw field values a shell would send for a valid
// standard application, without the support letter.
func FormValues() map[string]string {
	return map[string]string{
		"full_name":            "Jane Doe",
		"date_of_birth":        "1988-04-12",
		"is_for_dependent":     "false",
		"street":               "123 Queen St W",
		"city":                 "Toronto",
		"province":             "Ontario",
		"postal_code":          "M5H 2N2",
		"email":                "jane.doe@example.org",
		"phone_number":         "416-555-0123",
		"grant_requested_date": "2026-11-01",
		"funds_usage":          "Mobility equipment and a ramp.",
		"previous_grant":       "false",
		"attestation":          "on",
	}
}
