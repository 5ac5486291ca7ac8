// Package pipeline turns submitted evidence into pending achievement records: it fetches and
// reads certificates, extracts their fields, classifies them and hands the result to a store.
package pipeline

import "fmt"

// Stage names used in StageError and progress events.
const (
	StageValidate  = "validate"
	StageFetch     = "fetch"
	StageRecognize = "recognize"
	StageExtract   = "extract"
	StageClassify  = "classify"
	StageSave      = "save"
)

// StageError reports which stage of processing failed.
type StageError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
