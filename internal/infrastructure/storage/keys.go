package storage

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Object keys are namespaced by organization so a bucket policy or a
// lifecycle rule can target one tenant.

// MediaKey is where an inspection evidence file lives
func MediaKey(orgID, inspectionID, mediaID uuid.UUID, fileName string) string {
	return path.Join("orgs", orgID.String(), "inspections", inspectionID.String(), "media",
		mediaID.String()+"-"+SanitizeFileName(fileName))
}

// SignatureKey is where a decoded signature image lives
func SignatureKey(orgID, inspectionID uuid.UUID, kind, ext string) string {
	return path.Join("orgs", orgID.String(), "inspections", inspectionID.String(), "signatures",
		kind+"-"+uuid.NewString()+ext)
}

// AudioKey is where one recorded meeting chunk lives
func AudioKey(orgID, inspectionID uuid.UUID, fileName string) string {
	return path.Join("orgs", orgID.String(), "inspections", inspectionID.String(), "audio",
		uuid.NewString()+"-"+SanitizeFileName(fileName))
}

// KeyBelongsTo reports whether key sits under the organization's prefix
func KeyBelongsTo(key string, orgID uuid.UUID) bool {
	return strings.HasPrefix(key, "orgs/"+orgID.String()+"/") && !strings.Contains(key, "..")
}

// SanitizeFileName strips accents, directories and anything that is not
// safe in an object key
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if len(out) > 120 {
		out = out[len(out)-120:]
	}
	return out
}
