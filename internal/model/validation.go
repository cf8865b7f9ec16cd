package model

import "strings"

// ValidationError describes a single rule violation on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is the full list of violations found on a record. A
// non-empty list is returned as an error by services so callers can
// recover it with errors.As.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the human-readable message of every violation.
func (e ValidationErrors) Messages() []string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Message
	}
	return msgs
}
