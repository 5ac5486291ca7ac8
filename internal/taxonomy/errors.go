package taxonomy

import "fmt"

// LoadError represents a taxonomy table that could not be read or failed validation
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("taxonomy %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("taxonomy %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
