package compose

import "fmt"

// Kind classifies a composition failure.
type Kind string

// Composition failure kinds.
const (
	KindBackend     Kind = "backend"
	KindParse       Kind = "parse"
	KindPlaceholder Kind = "placeholder"
)

// Error means no message could be composed for a candidate. It is
// recoverable: the run logs it and moves on.
type Error struct {
	Kind    Kind
	Name    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("composition failed for %q (%s): %s: %v", e.Name, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("composition failed for %q (%s): %s", e.Name, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
