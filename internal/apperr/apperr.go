package apperr

import "fmt"

// Kind classifies a failure so handlers can map it to an HTTP status
// without inspecting message text.
type Kind int

const (
	// Validation is malformed or inconsistent input, rejected before persistence.
	Validation Kind = iota + 1
	// Unauthorized is a missing, invalid, or expired credential or token.
	Unauthorized
	// NotFound means a referenced entity does not exist.
	NotFound
	// Conflict is a uniqueness violation.
	Conflict
	// Internal is an unexpected failure (storage, hashing, signing).
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a machine-readable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
