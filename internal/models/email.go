package models

import "strings"

// NormalizeEmail lowercases and trims an email address for storage and
// case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
