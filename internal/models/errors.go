package models

import "fmt"

// ValidationError marks input rejected at the deserialization or request
// boundary: unknown country, zone, energy type, or an out-of-range value.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
