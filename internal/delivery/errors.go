package delivery

import "fmt"

// Error means a message could not be delivered after every attempt.
// It is recoverable: the run records a failure and continues.
type Error struct {
	To       string
	Attempts int
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery to %s failed after %d attempt(s): %v", e.To, e.Attempts, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
