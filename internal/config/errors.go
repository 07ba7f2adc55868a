// File: internal/config/errors.go
package config

import "fmt"

// ConfigError reports a bad or missing configuration value. It is fatal
// before any browser session is opened.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s=%q: %s", e.Field, e.Value, e.Reason)
}
