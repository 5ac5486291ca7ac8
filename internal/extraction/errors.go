// Package extraction pulls structured certificate fields (title, issuer, issue date) out of
// noisy recognized text using ordered pattern cascades with fallbacks.
package extraction

// EmptyInputError reports recognized text that is empty or whitespace-only.
// No certificate record should be created from such input.
type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	if e.Message == "" {
		return "empty input: recognized text is empty"
	}
	return "empty input: " + e.Message
}
