// Package classify scores achievement evidence against the category taxonomy and produces
// ranked, explainable predictions with point values.
package classify

import "fmt"

// InvalidInputError reports evidence that cannot be classified because a required field is empty
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}
