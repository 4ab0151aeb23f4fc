package wcag

import (
	"fmt"
	"strings"
)

// ValidationError is returned when an enumerated parameter (level,
// principle) carries an unrecognised value.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wcag: invalid %s %q (must be one of: %s)",
		e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// NotFoundError is returned when a criterion number is absent from the catalog.
type NotFoundError struct {
	Number string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("wcag: criterion %s not found", e.Number)
}
