package service

import (
	"mime"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"grantintake/internal/intake/models"
)

const (
	objectSuffix     = "-Support-Letter"
	fallbackBaseName = "Applicant"
)

// ObjectName derives the storage object name for an applicant's support letter:
// the transliterated name with everything but ASCII letters, digits and
// whitespace removed, whitespace runs collapsed to "-", then
// "-Support-Letter.<ext>". Storage keys only accept ASCII.
//
// The name is deterministic so a resubmit by the same applicant overwrites the
// earlier object.
func ObjectName(fullName string, att *models.Attachment) string {
	// chains are stateful, build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, fullName)
	if err != nil {
		plain = fullName
	}
	var b strings.Builder
	for _, r := range plain {
		if isASCIIAlnum(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	base := strings.Join(strings.Fields(b.String()), "-")
	if base == "" {
		base = fallbackBaseName
	}

	name := base + objectSuffix
	if ext := attachmentExt(att); ext != "" {
		name += "." + ext
	}
	return name
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// attachmentExt prefers the extension of the uploaded filename and falls back to
// the one implied by the content type.
func attachmentExt(att *models.Attachment) string {
	if att == nil {
		return ""
	}
	if ext := strings.TrimPrefix(filepath.Ext(att.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	ct := att.ContentType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return models.AllowedContentTypes[ct]
}
