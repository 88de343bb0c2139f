// internal/util/phone.go
package util

import "strings"

// NormalizePhone rewrites a phone number into E.164 form.
// Everything except digits and a leading '+' is stripped; a leading '0' is
// replaced with defaultCountryCode (for example "+256").
func NormalizePhone(phone, defaultCountryCode string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "+" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "0") {
		code := strings.TrimPrefix(defaultCountryCode, "+")
		return "+" + code + cleaned[1:]
	}
	return "+" + cleaned
}
