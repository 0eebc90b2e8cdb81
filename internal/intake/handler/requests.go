package handler

import (
	dErrors "grantintake/pkg/domain-errors"
)

// maxValueLength bounds any single field value accepted by the validate endpoint.
const maxValueLength = 4096

// ValidateRequest is the HTTP request body for POST /api/forms/{variant}/validate.
type ValidateRequest struct {
	Values map[string]string `json:"values"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ValidateRequest) Validate() error {
	if r == nil || r.Values == nil {
		return dErrors.New(dErrors.CodeBadRequest, "values is required")
	}
	for name, v := range r.Values {
		if len(v) > maxValueLength {
			return dErrors.New(dErrors.CodeValidation, name+" is too long")
		}
	}
	return nil
}
