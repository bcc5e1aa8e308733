package validators

import (
	"strings"
	"unicode"
)

// NormalizePhone strips formatting from a phone number and returns it in
// +<digits> form. Ten-digit numbers are taken as US numbers.
func NormalizePhone(phone string) (string, bool) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) == 10 {
		d = "1" + d
	}
	if len(d) < 7 || len(d) > 15 {
		return "", false
	}
	return "+" + d, true
}

// IsZip accepts 12345 and 12345-6789.
func IsZip(zip string) bool {
	zip = strings.TrimSpace(zip)
	switch len(zip) {
	case 5:
		return allDigits(zip)
	case 10:
		return zip[5] == '-' && allDigits(zip[:5]) && allDigits(zip[6:])
	default:
		return false
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
