package util

import (
	"fmt"
	"regexp"
)

// Canonical 8-4-4-4-12 UUID, case-insensitive. Non-conforming identifiers
// are rejected outright, never coerced.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateUUID returns a caller-facing message when id is missing or
// malformed, or an empty string when it passes.
func ValidateUUID(id, fieldName string) string {
	if id == "" {
		return fmt.Sprintf("%s is required", fieldName)
	}
	if !uuidRegex.MatchString(normalizeHex(id)) {
		return fmt.Sprintf("%s must be a valid UUID", fieldName)
	}
	return ""
}

func IsUUID(id string) bool {
	return uuidRegex.MatchString(normalizeHex(id))
}

func normalizeHex(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'F' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
