package middleware

import (
	"fmt"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

// ParseRecordID parses a path or body record id; it must be a positive integer.
func ParseRecordID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("record id cannot be empty")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("record id must be a positive integer")
	}
	return id, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 20, nil // default
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if limit <= 0 {
		return 20, nil
	}
	if limit > 100 {
		return 100, nil // max limit
	}
	return limit, nil
}
