package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"github.com/conorfennell/murajaah/internal/domain"
)

// Normalize joins the identifying parts of a subject after cleaning each one.
// Arabic diacritics and tatweel are removed so that vocalized and bare
// spellings of the same word produce the same result.
func Normalize(s domain.Subject) string {
	normalizePart := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		p = strings.Map(func(r rune) rune {
			if isArabicMark(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, p)
		return strings.Join(strings.Fields(p), " ")
	}

	// newline-joined so "ab"+"c" and "a"+"bc" stay distinct
	return strings.Join([]string{normalizePart(s.Arabic), normalizePart(s.Translation)}, "\n")
}

// SubjectID returns the hex SHA-256 of the normalized subject.
func SubjectID(s domain.Subject) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return fmt.Sprintf("%x", sum)
}

func isArabicMark(r rune) bool {
	switch {
	case r >= 0x064B && r <= 0x065F: // harakat, tanwin, shadda, sukun
		return true
	case r == 0x0670: // superscript alef
		return true
	case r >= 0x06D6 && r <= 0x06ED: // Quranic annotation marks
		return true
	case r == 0x0640: // tatweel
		return true
	}
	return false
}
