package gormstore

import "strings"

// isUniqueViolation detects a unique-constraint violation across both the
// Postgres and SQLite drivers without importing their error types
// directly, since the email and room/department code uniqueness rules
// route through both adapters.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
