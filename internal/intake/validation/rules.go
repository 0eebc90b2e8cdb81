package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"grantintake/internal/intake/models"
)

var (
	postalCodePattern = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`)
	phonePattern      = regexp.MustCompile(`^(?:\(\d{3}\)|\d{3})[-. ]?\d{3}[-. ]?\d{4}$`)

	// validator.Validate caches struct metadata and is safe for concurrent use.
	validate = validator.New()
)

// Messages shown to applicants.
const (
	MsgFullNameShort       = "Name must be at least 2 characters"
	MsgStreetRequired      = "Street address is required"
	MsgCityRequired        = "City is required"
	MsgProvinceInvalid     = "Please select a province"
	MsgPostalCodeInvalid   = "Please enter a valid postal code (e.g., A1A 1A1)"
	MsgEmailInvalid        = "Please enter a valid email address"
	MsgPhoneInvalid        = "Please enter a valid phone number (e.g., 416-555-0123)"
	MsgGrantDateRequired   = "Please select the date the grant is requested"
	MsgFundsUsageShort     = "Please provide at least 10 characters"
	MsgPreviousGrantUsage  = "Please explain how the previous grant was used"
	MsgAttachmentRequired  = "Please upload a support letter"
	MsgAttachmentNotFile   = "Support letter must be a file"
	MsgAttachmentType      = "Only PDF, JPEG, and PNG files are allowed"
	MsgAttestationRequired = "You must confirm that the information provided is accurate"
)

func minLength(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

func checkFullName(d *models.Draft) string {
	if !minLength(d.FullName, 2) {
		return MsgFullNameShort
	}
	return ""
}

func checkStreet(d *models.Draft) string {
	if !minLength(d.Street, 1) {
		return MsgStreetRequired
	}
	return ""
}

func checkCity(d *models.Draft) string {
	if !minLength(d.City, 1) {
		return MsgCityRequired
	}
	return ""
}

func checkProvince(d *models.Draft) string {
	if !d.Province.IsValid() {
		return MsgProvinceInvalid
	}
	return ""
}

// ValidPostalCode reports whether s has the A1A 1A1 shape, with an optional
// single space or hyphen in the middle.
func ValidPostalCode(s string) bool {
	return postalCodePattern.MatchString(strings.TrimSpace(s))
}

func checkPostalCode(d *models.Draft) string {
	if !ValidPostalCode(d.PostalCode) {
		return MsgPostalCodeInvalid
	}
	return ""
}

func checkEmail(d *models.Draft) string {
	if err := validate.Var(strings.TrimSpace(d.Email), "required,email"); err != nil {
		return MsgEmailInvalid
	}
	return ""
}

// ValidPhoneNumber reports whether s is a ten digit North American number, with
// optional parentheses around the area code and one -, . or space between groups.
func ValidPhoneNumber(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

func checkPhoneNumber(d *models.Draft) string {
	if !ValidPhoneNumber(d.PhoneNumber) {
		return MsgPhoneInvalid
	}
	return ""
}

func checkGrantRequestedDate(d *models.Draft) string {
	if d.GrantRequestedDate == nil || d.GrantRequestedDate.IsZero() {
		return MsgGrantDateRequired
	}
	return ""
}

func checkFundsUsage(d *models.Draft) string {
	if !minLength(d.FundsUsage, 10) {
		return MsgFundsUsageShort
	}
	return ""
}

func checkAttestation(d *models.Draft) string {
	if !d.Attestation {
		return MsgAttestationRequired
	}
	return ""
}

// attachmentRule is four independent checks; the first failing one wins.
func attachmentRule(maxBytes int64) rule {
	return func(d *models.Draft) string {
		att := d.Attachment
		switch {
		case att == nil:
			return MsgAttachmentRequired
		case att.Filename == "" || att.Content == nil:
			return MsgAttachmentNotFile
		case att.Size > maxBytes:
			return fmt.Sprintf("File size must be less than %s", formatSize(maxBytes))
		case !allowedType(att.ContentType):
			return MsgAttachmentType
		}
		return ""
	}
}

func allowedType(contentType string) bool {
	_, ok := models.AllowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

func formatSize(n int64) string {
	if n%models.MiB == 0 {
		return fmt.Sprintf("%dMB", n/models.MiB)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/float64(models.MiB))
}

// previousGrantUsageRefinement depends on the whole draft: the usage text is only
// required while the previous-grant flag is set.
func previousGrantUsageRefinement(d *models.Draft) string {
	if d.PreviousGrant && !minLength(d.PreviousGrantUsage, 1) {
		return MsgPreviousGrantUsage
	}
	return ""
}
