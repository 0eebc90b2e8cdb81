package handler

import (
	"slices"
	"time"

	"grantintake/internal/intake/models"
	"grantintake/internal/intake/validation"
)

// FormResponse describes one form variant to the shell.
type FormResponse struct {
	Variant    string             `json:"variant"`
	Fields     []string           `json:"fields"`
	Provinces  []ProvinceResponse `json:"provinces"`
	Attachment AttachmentResponse `json:"attachment"`
}

type ProvinceResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AttachmentResponse carries the upload limits of a variant.
type AttachmentResponse struct {
	MaxBytes     int64    `json:"max_bytes"`
	ContentTypes []string `json:"content_types"`
}

// ValidateResponse is the HTTP response for POST /api/forms/{variant}/validate.
type ValidateResponse struct {
	Errors                 map[string]string `json:"errors"`
	ShowPreviousGrantUsage bool              `json:"show_previous_grant_usage"`
}

// ApplicationResponse is the HTTP response for a created application.
type ApplicationResponse struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	SupportLetterURL string    `json:"support_letter_url"`
}

func FromVariant(v models.Variant) *FormResponse {
	fields := make([]string, 0, len(validation.Fields))
	for _, f := range validation.Fields {
		fields = append(fields, string(f))
	}
	provinces := make([]ProvinceResponse, 0, len(models.Provinces))
	for _, p := range models.Provinces {
		provinces = append(provinces, ProvinceResponse{Code: p.String(), Name: p.Name()})
	}
	types := make([]string, 0, len(models.AllowedContentTypes))
	for ct := range models.AllowedContentTypes {
		types = append(types, ct)
	}
	slices.Sort(types)

	return &FormResponse{
		Variant:   v.Name,
		Fields:    fields,
		Provinces: provinces,
		Attachment: AttachmentResponse{
			MaxBytes:     v.MaxAttachmentBytes,
			ContentTypes: types,
		},
	}
}

// FromRecord converts a persisted record to an HTTP response.
func FromRecord(rec *models.Record) *ApplicationResponse {
	return &ApplicationResponse{
		ID:               rec.ID,
		CreatedAt:        rec.CreatedAt,
		SupportLetterURL: rec.SupportLetterURL,
	}
}
