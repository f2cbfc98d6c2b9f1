// ABOUTME: Configuration error type for rejected symbolic input
// ABOUTME: Carries the offending field and value so callers can report them
package pattern

import "fmt"

// ConfigurationError reports a malformed or unknown configuration value.
// The engine keeps its previous value when one is returned.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func configErr(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
