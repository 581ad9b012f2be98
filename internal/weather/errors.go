package weather

import (
	"errors"
	"fmt"
	"strings"
)

// UpstreamError reports a failed fetch from one provider: transport failure,
// timeout, non-success status or an unreadable body.
type UpstreamError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SchemaError reports that a required section is missing from a payload.
type SchemaError struct {
	Provider string
	Section  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s payload missing required section %q", e.Provider, e.Section)
}

// ProviderFailure is one failed attempt during failover.
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersFailedError is returned when the primary and every fallback failed.
type AllProvidersFailedError struct {
	Failures []ProviderFailure
}

func (e *AllProvidersFailedError) Error() string {
	if len(e.Failures) == 0 {
		return "all weather providers failed: no providers available"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return "all weather providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes each attempt's cause to errors.Is and errors.As.
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ProviderNotFoundError is returned when switching to an unregistered provider.
type ProviderNotFoundError struct {
	Name      string
	Available []string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// IsProviderNotFound reports whether err is a ProviderNotFoundError.
func IsProviderNotFound(err error) bool {
	var nf *ProviderNotFoundError
	return errors.As(err, &nf)
}
