// Package validation holds the declarative rules of the grant application form.
//
// Rules are pure and return a message instead of an error: a failing field is
// data to display, not a fault to propagate.
package validation

import "grantintake/internal/intake/models"

type rule func(d *models.Draft) string

type fieldRule struct {
	field Field
	check rule
}

// Schema validates drafts for one form variant.
type Schema struct {
	variant models.Variant
	rules   []fieldRule
	refines []fieldRule
}

// NewSchema builds the rule set for variant.
func NewSchema(variant models.Variant) *Schema {
	return &Schema{
		variant: variant,
		rules: []fieldRule{
			{FieldFullName, checkFullName},
			{FieldStreet, checkStreet},
			{FieldCity, checkCity},
			{FieldProvince, checkProvince},
			{FieldPostalCode, checkPostalCode},
			{FieldEmail, checkEmail},
			{FieldPhoneNumber, checkPhoneNumber},
			{FieldGrantRequestedDate, checkGrantRequestedDate},
			{FieldFundsUsage, checkFundsUsage},
			{FieldSupportLetter, attachmentRule(variant.MaxAttachmentBytes)},
			{FieldAttestation, checkAttestation},
		},
		refines: []fieldRule{
			{FieldPreviousGrantUsage, previousGrantUsageRefinement},
		},
	}
}

// Variant returns the variant the schema was built for.
func (s *Schema) Variant() models.Variant {
	return s.variant
}

// ValidateField returns the failure message for f, or "" when it passes.
// Fields without a rule (optional flags, date of birth) always pass.
func (s *Schema) ValidateField(f Field, d *models.Draft) string {
	for _, r := range s.rules {
		if r.field == f {
			if msg := r.check(d); msg != "" {
				return msg
			}
		}
	}
	for _, r := range s.refines {
		if r.field == f {
			if msg := r.check(d); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// Validate runs every field rule and then the whole-draft refinements. A
// refinement never overrides a field-local message.
func (s *Schema) Validate(d *models.Draft) Errors {
	errs := Errors{}
	for _, r := range s.rules {
		if msg := r.check(d); msg != "" {
			errs[r.field] = msg
		}
	}
	for _, r := range s.refines {
		if _, failed := errs[r.field]; failed {
			continue
		}
		if msg := r.check(d); msg != "" {
			errs[r.field] = msg
		}
	}
	return errs
}
