package errors

import (
	"strings"
	"unicode"
)

// maxIdentifierLength bounds node ids and product names accepted from users.
const maxIdentifierLength = 512

// ValidateIdentifier validates a node id or product name supplied by a user
// (CLI flag, HTTP path parameter) before it is used as a lookup key.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No surrounding whitespace
//   - Maximum length of 512 characters
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "identifier cannot be empty")
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidIdentifier, "identifier too long (max %d characters)", maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "identifier contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidIdentifier, "identifier has leading or trailing whitespace: %q", id)
	}

	return nil
}

// ValidateIdentifiers validates every identifier in ids, returning the first failure.
func ValidateIdentifiers(ids []string) error {
	for _, id := range ids {
		if err := ValidateIdentifier(id); err != nil {
			return err
		}
	}
	return nil
}
