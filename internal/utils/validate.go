package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsOnly   = regexp.MustCompile(`^\d+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)
)

// IsEmail reports whether value looks like an email address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// IsDigits reports whether value consists of digits only.
func IsDigits(value string) bool {
	return digitsOnly.MatchString(value)
}

// IsPhone reports whether value looks like a phone number with optional
// leading plus.
func IsPhone(value string) bool {
	return phonePattern.MatchString(strings.TrimSpace(value))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
