package validation

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"grantintake/internal/intake/intaketest"
	"grantintake/internal/intake/models"
)

type SchemaSuite struct {
	suite.Suite
	schema *Schema
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaSuite))
}

func (s *SchemaSuite) SetupTest() {
	s.schema = NewSchema(models.DefaultVariants()[models.VariantStandard])
}

func (s *SchemaSuite) TestValidDraftPasses() {
	errs := s.schema.Validate(intaketest.ValidDraft())
	s.False(errs.HasErrors(), "unexpected errors: %v", errs)
}

func (s *SchemaSuite) TestPostalCode() {
	s.Run("accepts the canadian shape with optional separator", func() {
		for _, code := range []string{"K1A 0B1", "k1a0b1", "K1A-0B1", " M5V 3L9 "} {
			s.True(ValidPostalCode(code), code)
		}
	})

	s.Run("rejects everything else", func() {
		for _, code := range []string{"", "12345", "K1A  0B1", "K1A_0B1", "KK1 0B1", "K1A 0B", "K1A 0B12", "1A1 A1A", "K1A0B1X"} {
			s.False(ValidPostalCode(code), code)
		}
	})

	s.Run("surfaces the message on the field", func() {
		d := intaketest.ValidDraft()
		d.PostalCode = "90210"
		s.Equal(MsgPostalCodeInvalid, s.schema.ValidateField(FieldPostalCode, d))
	})
}

func (s *SchemaSuite) TestPhoneNumber() {
	s.Run("accepts common separators", func() {
		for _, phone := range []string{"416-555-0123", "(416) 555-0123", "416.555.0123", "4165550123", "416 555 0123", "(416)555-0123"} {
			s.True(ValidPhoneNumber(phone), phone)
		}
	})

	s.Run("rejects anything but ten digits", func() {
		for _, phone := range []string{"555-0123", "416-555-012", "1-416-555-0123", "41655501234", "416-555-01234", "phone", ""} {
			s.False(ValidPhoneNumber(phone), phone)
		}
	})

	s.Run("rejects unbalanced parentheses", func() {
		for _, phone := range []string{"(416 555-0123", "416) 555-0123", "(416555-0123", "((416)) 555-0123"} {
			s.False(ValidPhoneNumber(phone), phone)
		}
	})
}

func (s *SchemaSuite) TestPreviousGrantUsageIsConditional() {
	s.Run("required while previous grant is true", func() {
		d := intaketest.ValidDraft()
		d.PreviousGrant = true
		d.PreviousGrantUsage = ""

		errs := s.schema.Validate(d)
		s.Equal(MsgPreviousGrantUsage, errs.Get(FieldPreviousGrantUsage))
		s.Equal(MsgPreviousGrantUsage, s.schema.ValidateField(FieldPreviousGrantUsage, d))
	})

	s.Run("whitespace does not count as an explanation", func() {
		d := intaketest.ValidDraft()
		d.PreviousGrant = true
		d.PreviousGrantUsage = "   "
		s.True(s.schema.Validate(d).HasErrors())
	})

	s.Run("ignored when previous grant is false", func() {
		for _, usage := range []string{"", "anything at all"} {
			d := intaketest.ValidDraft()
			d.PreviousGrant = false
			d.PreviousGrantUsage = usage
			s.False(s.schema.Validate(d).HasErrors(), usage)
		}
	})
}

func (s *SchemaSuite) TestAttachment() {
	limit := s.schema.Variant().MaxAttachmentBytes

	s.Run("missing", func() {
		d := intaketest.ValidDraft()
		d.Attachment = nil
		s.Equal(MsgAttachmentRequired, s.schema.ValidateField(FieldSupportLetter, d))
	})

	s.Run("without content", func() {
		d := intaketest.ValidDraft()
		d.Attachment.Content = nil
		s.Equal(MsgAttachmentNotFile, s.schema.ValidateField(FieldSupportLetter, d))
	})

	s.Run("text/plain is blocked regardless of size", func() {
		for _, size := range []int64{1, 1024, limit} {
			d := intaketest.ValidDraft()
			d.Attachment = intaketest.Text("letter.txt", size)
			s.Equal(MsgAttachmentType, s.schema.ValidateField(FieldSupportLetter, d))
		}
	})

	s.Run("exactly at the ceiling passes", func() {
		d := intaketest.ValidDraft()
		d.Attachment = intaketest.PDF("letter.pdf", limit)
		s.Empty(s.schema.ValidateField(FieldSupportLetter, d))
	})

	s.Run("one byte over is blocked", func() {
		d := intaketest.ValidDraft()
		d.Attachment = intaketest.PDF("letter.pdf", limit+1)
		s.Equal("File size must be less than 5MB", s.schema.ValidateField(FieldSupportLetter, d))
	})

	s.Run("size is checked before type", func() {
		d := intaketest.ValidDraft()
		d.Attachment = intaketest.Text("letter.txt", limit+1)
		s.Equal("File size must be less than 5MB", s.schema.ValidateField(FieldSupportLetter, d))
	})

	s.Run("extended variant raises the ceiling", func() {
		extended := NewSchema(models.DefaultVariants()[models.VariantExtended])
		d := intaketest.ValidDraft()
		d.Attachment = intaketest.PNG("scan.png", 25*models.MiB)
		s.Empty(extended.ValidateField(FieldSupportLetter, d))

		d.Attachment = intaketest.PNG("scan.png", 25*models.MiB+1)
		s.Equal("File size must be less than 25MB", extended.ValidateField(FieldSupportLetter, d))
	})
}

func (s *SchemaSuite) TestFieldLocalRules() {
	cases := []struct {
		name   string
		mutate func(d *models.Draft)
		field  Field
		want   string
	}{
		{"short name", func(d *models.Draft) { d.FullName = " J " }, FieldFullName, MsgFullNameShort},
		{"missing street", func(d *models.Draft) { d.Street = "" }, FieldStreet, MsgStreetRequired},
		{"missing city", func(d *models.Draft) { d.City = "  " }, FieldCity, MsgCityRequired},
		{"territory", func(d *models.Draft) { d.Province = "YT" }, FieldProvince, MsgProvinceInvalid},
		{"bad email", func(d *models.Draft) { d.Email = "jane@" }, FieldEmail, MsgEmailInvalid},
		{"missing grant date", func(d *models.Draft) { d.GrantRequestedDate = nil }, FieldGrantRequestedDate, MsgGrantDateRequired},
		{"short usage", func(d *models.Draft) { d.FundsUsage = "rent" }, FieldFundsUsage, MsgFundsUsageShort},
		{"no attestation", func(d *models.Draft) { d.Attestation = false }, FieldAttestation, MsgAttestationRequired},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			d := intaketest.ValidDraft()
			tc.mutate(d)
			errs := s.schema.Validate(d)
			s.Equal(tc.want, errs.Get(tc.field))
			s.Len(errs, 1)
		})
	}
}

func (s *SchemaSuite) TestOptionalFieldsAlwaysPass() {
	d := intaketest.ValidDraft()
	d.DateOfBirth = nil
	d.IsForDependent = nil
	s.Empty(s.schema.ValidateField(FieldDateOfBirth, d))
	s.Empty(s.schema.ValidateField(FieldIsForDependent, d))
	s.False(s.schema.Validate(d).HasErrors())
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, ok := ParseField(string(f))
		if !ok || got != f {
			t.Fatalf("expected %q to round trip", f)
		}
	}
	if _, ok := ParseField("nickname"); ok {
		t.Fatalf("expected unknown field to be rejected")
	}
}
