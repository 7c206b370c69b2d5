package util

import "strings"

// NormalizeEmail lowercases and trims an email for consistent comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phoneSeparators = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", "\t", "")

// NormalizePhone strips spaces and separator characters. Empty input stays empty.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phoneSeparators.Replace(phone))
}
