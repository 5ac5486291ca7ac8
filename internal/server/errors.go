// Package server provides the HTTP REST API for submitting, reviewing and verifying
// achievement evidence.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/extraction"
	"github.com/jonathan/achievement-classifier/internal/fetch"
	"github.com/jonathan/achievement-classifier/internal/pipeline"
	"github.com/jonathan/achievement-classifier/internal/verification"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnavailable indicates an endpoint whose backing service is not configured
type ErrUnavailable struct {
	Service string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured on this server", e.Service)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageStatus(stageErr)
	}

	var (
		validationErr *ErrValidation
		notFoundErr   *ErrNotFound
		unavailErr    *ErrUnavailable
		invalidErr    *classify.InvalidInputError
		emptyErr      *extraction.EmptyInputError
		fieldErrs     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &invalidErr),
		errors.As(err, &emptyErr),
		errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, verification.ErrNotApproved):
		return http.StatusConflict
	case errors.As(err, &unavailErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// stageStatus maps a pipeline failure to a status by the stage that failed.
func stageStatus(err *pipeline.StageError) int {
	switch err.Stage {
	case pipeline.StageValidate, pipeline.StageClassify:
		return http.StatusBadRequest
	case pipeline.StageFetch:
		if errors.Is(err, fetch.ErrTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadGateway
	case pipeline.StageRecognize, pipeline.StageExtract:
		// The document was retrieved but holds no usable certificate text.
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns a client-facing message for err. Validator errors are
// rewritten into one line per field.
func ErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
