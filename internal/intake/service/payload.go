package service

import (
	"strings"

	"grantintake/internal/intake/models"
)

// NewPayload flattens a validated draft into the record shape shared by the
// record store and every notification target.
func NewPayload(d *models.Draft, supportLetterURL string) models.Payload {
	p := models.Payload{
		FullName:         strings.TrimSpace(d.FullName),
		IsForDependent:   d.IsForDependent != nil && *d.IsForDependent,
		MailingAddress:   MailingAddress(d),
		Email:            strings.TrimSpace(d.Email),
		PhoneNumber:      strings.TrimSpace(d.PhoneNumber),
		FundsUsage:       strings.TrimSpace(d.FundsUsage),
		PreviousGrant:    d.PreviousGrant,
		SupportLetterURL: supportLetterURL,
		Attestation:      d.Attestation,
	}
	if d.DateOfBirth != nil {
		dob := d.DateOfBirth.Format(models.DateLayout)
		p.DateOfBirth = &dob
	}
	if d.GrantRequestedDate != nil {
		p.GrantRequestedDate = d.GrantRequestedDate.Format(models.DateLayout)
	}
	if d.PreviousGrant {
		usage := strings.TrimSpace(d.PreviousGrantUsage)
		p.PreviousGrantUsage = &usage
	}
	return p
}

// MailingAddress renders "<street>, <city>, <province> <postal code>" with the
// province's full name and the postal code upper-cased around a single space.
func MailingAddress(d *models.Draft) string {
	province := d.Province.Name()
	if province == "" {
		province = d.Province.String()
	}
	return strings.TrimSpace(d.Street) + ", " +
		strings.TrimSpace(d.City) + ", " +
		province + " " + NormalizePostalCode(d.PostalCode)
}

// NormalizePostalCode turns "m5h-2n2" or "M5H2N2" into "M5H 2N2". Input that is
// not six characters once separators are removed is returned upper-cased.
func NormalizePostalCode(s string) string {
	compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s)))
	if len(compact) != 6 {
		return compact
	}
	return compact[:3] + " " + compact[3:]
}
