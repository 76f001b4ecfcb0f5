package search

import "fmt"

// ValidationError rejects a submit before any state change or network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrEmptySearchText is returned by Submit for blank search text.
var ErrEmptySearchText = &ValidationError{
	Field:   KeySearchText,
	Message: "search text cannot be empty",
}
