package app

import (
	"errors"
	"fmt"
	"net/http"

	"tasknotes/api/internal/authpw"
	"tasknotes/api/internal/notes"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var errNoteNotFound = domainError(http.StatusNotFound, "NOT_FOUND", "Note not found", nil)

// fromValidation turns input errors from the notes and authpw packages into
// 400 responses naming the offending field. Other errors pass through.
func fromValidation(err error) error {
	var validationErr *notes.ValidationError
	if errors.As(err, &validationErr) {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Reason, map[string]any{
			"field":  validationErr.Field,
			"reason": validationErr.Reason,
		})
	}
	var inputErr *authpw.InputError
	if errors.As(err, &inputErr) {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", inputErr.Message, map[string]any{
			"field": inputErr.Field,
		})
	}
	return err
}
