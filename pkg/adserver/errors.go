package adserver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAdapter indicates a tenant is configured with an adapter name that
// is not registered.
var ErrUnknownAdapter = errors.New("ad server adapter not registered")

// Issue is one structured rejection returned by an ad server.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AdapterError is a structured rejection from the external ad server. It is
// surfaced verbatim and never retried automatically.
type AdapterError struct {
	Adapter string
	Issues  []Issue
}

func (e *AdapterError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
	}

	return fmt.Sprintf("ad server %s rejected the operation: %s", e.Adapter, strings.Join(messages, "; "))
}

// IsAdapterError checks if an error is a structured ad server rejection.
func IsAdapterError(err error) bool {
	var adapterErr *AdapterError

	return errors.As(err, &adapterErr)
}
