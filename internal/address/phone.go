package address

import "strings"

var uaePrefixes = []string{"+971", "971", "0"}

// StripPhone removes spaces and dashes from a phone number.
func StripPhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

// IsUAEPhone reports whether phone starts with a UAE prefix once spaces and
// dashes are removed.
func IsUAEPhone(phone string) bool {
	cleaned := StripPhone(phone)
	for _, prefix := range uaePrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			return true
		}
	}
	return false
}
