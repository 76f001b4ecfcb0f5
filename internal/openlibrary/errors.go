package openlibrary

import "fmt"

// TransportError covers network failures, non-2xx responses and bodies
// that do not decode.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("openlibrary: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("openlibrary: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
