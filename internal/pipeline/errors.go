package pipeline

import "fmt"

// MissingInputError means a required run input is absent. The run never begins.
type MissingInputError struct {
	Input   string
	Message string
	Cause   error
}

func (e *MissingInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing input %s: %s: %v", e.Input, e.Message, e.Cause)
	}
	return fmt.Sprintf("missing input %s: %s", e.Input, e.Message)
}

func (e *MissingInputError) Unwrap() error {
	return e.Cause
}
