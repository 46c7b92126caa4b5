package models

import "fmt"

// ConfigError marks an invalid rule or composite definition. Load fails
// fast on it; evaluation never sees an invalid definition.
type ConfigError struct {
	Subject string // rule or composite ID, or file-level context
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Subject, e.Reason)
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(subject, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}
