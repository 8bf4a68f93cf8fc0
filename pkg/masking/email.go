package masking

import (
	"regexp"
	"strings"
)

// emailPattern finds email-like substrings: local part, "@", domain, dot,
// TLD of at least two letters.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// EmailMasker detects and masks email addresses inside parameter values.
// Masking is a pure function of its input: the same value always masks to
// the same output.
type EmailMasker struct {
	re *regexp.Regexp
}

// NewEmailMasker creates an email masker.
func NewEmailMasker() *EmailMasker {
	return &EmailMasker{re: emailPattern}
}

// Contains reports whether value is a string containing an email address.
// Non-string values never match.
func (m *EmailMasker) Contains(value any) bool {
	s, ok := value.(string)
	return ok && m.re.MatchString(s)
}

// Mask masks every email address in value. Non-string values are returned
// unchanged.
func (m *EmailMasker) Mask(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return m.MaskString(s)
}

// MaskString masks every email address in s, left to right. The domain is
// preserved verbatim; the local part keeps its first and last character with
// the interior replaced by asterisks. Two-character local parts keep only
// the first character; single characters become one asterisk.
func (m *EmailMasker) MaskString(s string) string {
	return m.re.ReplaceAllStringFunc(s, maskEmail)
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	local := []rune(email[:at])
	domain := email[at:]

	switch n := len(local); {
	case n > 2:
		return string(local[0]) + strings.Repeat("*", n-2) + string(local[n-1]) + domain
	case n == 2:
		return string(local[0]) + "*" + domain
	default:
		return "*" + domain
	}
}
