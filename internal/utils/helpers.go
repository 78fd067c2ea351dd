package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)*\.[A-Za-z]{2,}$`)

// NormalizeEmail trims and lower-cases an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks deliverable and fits the column.
func ValidEmail(email string) bool {
	return len(email) <= 150 && emailPattern.MatchString(email)
}

// ValidName requires at least two characters.
func ValidName(name string) bool {
	return len(strings.TrimSpace(name)) > 1
}
