package domain

import "errors"

// Domain errors
var (
	ErrUnreadableDocument = errors.New("unreadable document")
	ErrRuleSetInvalid     = errors.New("invalid rule set")
	ErrUnknownSectionKind = errors.New("unknown section kind")
	ErrUnsupportedBackend = errors.New("unsupported pdf backend")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
