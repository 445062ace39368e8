package notes

import (
	"fmt"
	"strings"
)

// ValidationError names the request field that failed a rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RequireText rejects a blank value for field.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: field + " is required"}
	}
	return nil
}
