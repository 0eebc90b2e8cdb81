package models

const (
	MiB = 1 << 20

	VariantStandard = "standard"
	VariantExtended = "extended"
)

// Variant is one deployment of the intake form. Variants differ only in their
// attachment ceiling and where submissions land.
type Variant struct {
	Name               string `yaml:"name" json:"name"`
	MaxAttachmentBytes int64  `yaml:"max_attachment_bytes" json:"max_attachment_bytes"`
	Bucket             string `yaml:"bucket" json:"-"`
	Table              string `yaml:"table" json:"-"`
}

// DefaultVariants are used when no variants file is configured.
func DefaultVariants() map[string]Variant {
	return map[string]Variant{
		VariantStandard: {
			Name:               VariantStandard,
			MaxAttachmentBytes: 5 * MiB,
			Bucket:             "support-letters",
			Table:              "grant_applications",
		},
		VariantExtended: {
			Name:               VariantExtended,
			MaxAttachmentBytes: 25 * MiB,
			Bucket:             "support-letters",
			Table:              "grant_applications",
		},
	}
}
