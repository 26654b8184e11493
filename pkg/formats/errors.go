package formats

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFormatFields indicates that a format reference lacks agent_url
	// or format_id.
	ErrMissingFormatFields = errors.New("format reference requires agent_url and format_id")

	// ErrUnregisteredAgent indicates that the referenced agent URL is not in
	// the tenant's registered creative agents.
	ErrUnregisteredAgent = errors.New("creative agent is not registered for tenant")

	// ErrUnknownFormat indicates that the agent does not publish the
	// referenced format.
	ErrUnknownFormat = errors.New("format not found on creative agent")
)

// ValidationError reports a rejected format reference with enough context for
// the caller to locate the offending creative.
type ValidationError struct {
	CreativeID string
	AgentURL   string
	FormatID   string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("format validation failed for creative %s (agent=%s, format=%s): %s",
		e.CreativeID, e.AgentURL, e.FormatID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a format validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
