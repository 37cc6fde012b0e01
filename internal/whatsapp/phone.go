package whatsapp

import (
	"strings"
	"unicode"
)

const countryCode = "57"

// NormalizePhone keeps the digits and drops the Colombian country code, so
// "+57 300 123 4567" and "3001234567" are the same user.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) > 10 && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	return digits
}

// ToInternational is the form the Graph API expects.
func ToInternational(phone string) string {
	d := NormalizePhone(phone)
	if len(d) == 10 {
		return countryCode + d
	}
	return d
}
