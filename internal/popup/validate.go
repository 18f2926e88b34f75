package popup

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{0,15}$`)
)

// ValidEmail reports whether v looks like an email address: a single "@"
// with a dotted domain after it.
func ValidEmail(v string) bool {
	return emailPattern.MatchString(strings.TrimSpace(v))
}

// ValidPhone reports whether v looks like a phone number: digits only with
// an optional leading "+", first digit non-zero, at most 16 digits.
// Internal whitespace is stripped before matching.
func ValidPhone(v string) bool {
	stripped := strings.Join(strings.Fields(v), "")
	return phonePattern.MatchString(stripped)
}

// ValidInput dispatches on the offer's declared input type.
func ValidInput(t InputType, v string) bool {
	switch t {
	case InputPhone:
		return ValidPhone(v)
	default:
		return ValidEmail(v)
	}
}
