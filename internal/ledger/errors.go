package ledger

import "fmt"

// WriteError means a ledger append did not become durable. It is fatal for
// the run: continuing could lose the record of a completed send.
type WriteError struct {
	Op    string
	Name  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger %s for %q failed: %v", e.Op, e.Name, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// ReadError means the ledger could not be loaded.
type ReadError struct {
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ledger read failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("ledger read failed: %s", e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}
