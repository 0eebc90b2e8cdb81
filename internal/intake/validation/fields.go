package validation

// Field names a form field. Values are the wire names used by the shell and
// the validation endpoint.
type Field string

const (
	FieldFullName           Field = "full_name"
	FieldDateOfBirth        Field = "date_of_birth"
	FieldIsForDependent     Field = "is_for_dependent"
	FieldStreet             Field = "street"
	FieldCity               Field = "city"
	FieldProvince           Field = "province"
	FieldPostalCode         Field = "postal_code"
	FieldEmail              Field = "email"
	FieldPhoneNumber        Field = "phone_number"
	FieldGrantRequestedDate Field = "grant_requested_date"
	FieldFundsUsage         Field = "funds_usage"
	FieldPreviousGrant      Field = "previous_grant"
	FieldPreviousGrantUsage Field = "previous_grant_usage"
	FieldSupportLetter      Field = "support_letter"
	FieldAttestation        Field = "attestation"
)

// Fields lists every field in form order.
var Fields = []Field{
	FieldFullName,
	FieldDateOfBirth,
	FieldIsForDependent,
	FieldStreet,
	FieldCity,
	FieldProvince,
	FieldPostalCode,
	FieldEmail,
	FieldPhoneNumber,
	FieldGrantRequestedDate,
	FieldFundsUsage,
	FieldPreviousGrant,
	FieldPreviousGrantUsage,
	FieldSupportLetter,
	FieldAttestation,
}

// ParseField returns the Field for a wire name.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Errors holds one human-readable message per failing field. A field without an
// entry passed.
type Errors map[Field]string

func (e Errors) HasErrors() bool {
	return len(e) > 0
}

func (e Errors) Get(f Field) string {
	return e[f]
}

// Strings converts to wire names for JSON responses.
func (e Errors) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[string(f)] = msg
	}
	return out
}
