// Package ocr turns certificate images into plain text. Two engines are available: a local
// tesseract binary and a Gemini vision model. Pool bounds how many recognitions run at once.
package ocr

import "fmt"

// RecognitionError is returned when an engine fails to read an image.
type RecognitionError struct {
	Engine  string
	Message string
	Cause   error
}

func (e *RecognitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s ocr: %s: %v", e.Engine, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s ocr: %s", e.Engine, e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return e.Cause
}
