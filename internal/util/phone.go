package util

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D+`)

// NormalizePhone normalizes a destination number for the legacy auto-sender:
// digits only, with the Indian country code prefixed. A bare 10-digit number
// gets "91" prepended; an 11-digit number with a leading zero is the same
// number with the zero dropped; anything else passes through unchanged.
func NormalizePhone(raw string) string {
	s := nonDigits.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case len(s) == 10:
		return "91" + s
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		return "91" + s[1:]
	default:
		return s
	}
}
