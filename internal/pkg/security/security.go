// Package security provides input validation and sanitization for search
// queries, log fields and statute file content.
package security

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation limits.
const (
	MaxQueryLength = 10000

	MinLimit     = 1
	MaxLimit     = 1000
	DefaultLimit = 10

	// binarySampleSize is how much of a file IsBinaryContent inspects.
	binarySampleSize = 8192
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// ValidateQuery validates a search query string.
// Requirements: required, at most MaxQueryLength runes, valid UTF-8.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return &ValidationError{
			Field:      "query",
			Constraint: "required",
		}
	}

	if !utf8.ValidString(query) {
		return &ValidationError{
			Field:      "query",
			Constraint: "must be valid UTF-8",
		}
	}

	if length := utf8.RuneCountInString(query); length > MaxQueryLength {
		return &ValidationError{
			Field:      "query",
			Value:      length,
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxQueryLength),
		}
	}

	return nil
}

// ValidateLimit validates a result limit.
// Requirements: MinLimit-MaxLimit.
func ValidateLimit(limit uint64) error {
	if limit < MinLimit {
		return &ValidationError{
			Field:      "limit",
			Value:      limit,
			Constraint: fmt.Sprintf("minimum value is %d", MinLimit),
		}
	}

	if limit > MaxLimit {
		return &ValidationError{
			Field:      "limit",
			Value:      limit,
			Constraint: fmt.Sprintf("maximum value is %d", MaxLimit),
		}
	}

	return nil
}

// SanitizeQuery removes control characters from a search query and trims it.
// Tabs and newlines become spaces.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, query)

	return strings.TrimSpace(sanitized)
}

// SanitizeForLog sanitizes a string for safe logging.
// It prevents log injection by:
// - Replacing newlines with escaped versions
// - Replacing carriage returns
// - Removing other control characters
// - Truncating to a maximum length
func SanitizeForLog(s string) string {
	return SanitizeForLogWithLength(s, 200)
}

// SanitizeForLogWithLength sanitizes a string for logging with a custom max length.
func SanitizeForLogWithLength(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLen+10))

	count := 0
	for _, r := range s {
		if count >= maxLen {
			b.WriteString("...")
			break
		}

		switch r {
		case '\n':
			b.WriteString("\\n")
			count += 2
		case '\r':
			b.WriteString("\\r")
			count += 2
		case '\t':
			b.WriteString("\\t")
			count += 2
		default:
			if !unicode.IsControl(r) {
				b.WriteRune(r)
				count++
			}
		}
	}

	return b.String()
}

// IsBinaryContent reports whether content looks like a binary file (a PDF,
// a word processor document) rather than statute text. Only the first 8KB
// are inspected.
func IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	sample := content[:min(len(content), binarySampleSize)]

	nullCount := 0
	nonPrintable := 0

	for _, b := range sample {
		if b == 0 {
			nullCount++
			if nullCount > 3 {
				return true
			}
		} else if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			nonPrintable++
		}
	}

	// More than 10% control bytes
	return float64(nonPrintable)/float64(len(sample)) > 0.1
}
