package tools

import "fmt"

// ArgumentError reports a tool argument that cannot be used.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func required(field, value string) error {
	if value == "" {
		return &ArgumentError{Field: field, Reason: "is required"}
	}
	return nil
}
