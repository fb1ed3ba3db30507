// ABOUTME: Validation of admin API query parameters
// ABOUTME: Stream IDs, timestamps and flags are checked before they reach a sync

package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"feedly-sync/models"
)

const maxStreamIDLength = 2048

// ValidationError reports a rejected request parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// InputValidator checks request parameters
type InputValidator struct {
	pathTraversalPattern *regexp.Regexp
	scriptPattern        *regexp.Regexp
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		pathTraversalPattern: regexp.MustCompile(`\.\.[\\/]|[\\/]\.\.$`),
		scriptPattern:        regexp.MustCompile(`(?i)<script|javascript:|vbscript:|data:text/html`),
	}
}

// ValidateStreamID checks a Feedly stream ID of one of the wanted kinds.
// No kinds means any recognizable kind.
func (v *InputValidator) ValidateStreamID(field, value string, kinds ...models.ResourceKind) (models.ResourceID, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", ValidationError{Field: field, Message: "is required"}
	case len(value) > maxStreamIDLength:
		return "", ValidationError{Field: field, Message: fmt.Sprintf("exceeds %d bytes", maxStreamIDLength)}
	case containsControlCharacters(value):
		return "", ValidationError{Field: field, Message: "contains control characters"}
	case v.pathTraversalPattern.MatchString(value):
		return "", ValidationError{Field: field, Message: "contains a path traversal sequence"}
	case v.scriptPattern.MatchString(value):
		return "", ValidationError{Field: field, Message: "contains script content"}
	}

	resource := models.ResourceID(value)
	if !resource.IsValid() {
		return "", ValidationError{Field: field, Message: "is not a Feedly stream ID"}
	}
	if len(kinds) > 0 {
		for _, kind := range kinds {
			if resource.Kind() == kind {
				return resource, nil
			}
		}
		return "", ValidationError{Field: field, Message: fmt.Sprintf("must be a %s stream", kinds[0])}
	}
	return resource, nil
}

// ParseOptionalBool parses a tri-state flag; "" yields nil
func (v *InputValidator) ParseOptionalBool(field, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, ValidationError{Field: field, Message: "must be true or false"}
	}
	return &b, nil
}

// ParseOptionalTime accepts RFC 3339 or Unix milliseconds; "" yields nil
func (v *InputValidator) ParseOptionalTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}
	return nil, ValidationError{Field: field, Message: "must be RFC 3339 or Unix milliseconds"}
}

func containsControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
