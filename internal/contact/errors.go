package contact

import "fmt"

// UnresolvableError means no usable delivery address exists for a candidate.
type UnresolvableError struct {
	Name string
	Hint string
}

func (e *UnresolvableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("no valid address for %q (hint %q)", e.Name, e.Hint)
	}
	return fmt.Sprintf("no valid address for %q", e.Name)
}
