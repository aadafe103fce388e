package sandbox

import "fmt"

// ConfigurationError indicates a missing or invalid identity configuration.
// It is fatal for the operation and surfaced immediately.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// PathSecurityError indicates a caller-supplied name that would escape or
// probe the sandbox. Rejected names are never auto-corrected.
type PathSecurityError struct {
	Name   string
	Reason string
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("invalid file name %q: %s", e.Name, e.Reason)
}
