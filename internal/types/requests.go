package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ClassifyRequest asks for a classification of typed evidence.
// Emptiness of title/description is reported by the classifier itself.
type ClassifyRequest struct {
	Title       string `json:"title" validate:"max=300"`
	Description string `json:"description" validate:"max=5000"`
}

// ExtractRequest carries already-recognized certificate text.
type ExtractRequest struct {
	Text string `json:"text" validate:"max=200000"`
}

// AchievementRequest is a manually entered achievement for a student.
type AchievementRequest struct {
	StudentID   string `json:"student_id" validate:"required,max=100"`
	Title       string `json:"title" validate:"max=300"`
	Description string `json:"description" validate:"max=5000"`
}

// CertificateRequest points at a certificate image, PDF or credential page.
type CertificateRequest struct {
	StudentID   string `json:"student_id" validate:"required,max=100"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description,omitempty" validate:"max=5000"`
}

// StatusUpdateRequest changes the review status of a record.
type StatusUpdateRequest struct {
	Status RecordStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// VerifyRequest carries a verification token.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so errors match the request body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the ClassifyRequest using the validator.
func (r *ClassifyRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ExtractRequest using the validator.
func (r *ExtractRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the AchievementRequest using the validator.
func (r *AchievementRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CertificateRequest using the validator.
func (r *CertificateRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the StatusUpdateRequest using the validator.
func (r *StatusUpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the VerifyRequest using the validator.
func (r *VerifyRequest) Validate() error {
	return validate.Struct(r)
}
