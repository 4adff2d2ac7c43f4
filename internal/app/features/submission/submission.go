// internal/app/features/submission/submission.go
package submission

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is one funding request after sanitization.
type Submission struct {
	Name       string `form:"name" validate:"required"`
	Email      string `form:"email" validate:"required,email"`
	Phone      string `form:"phone" validate:"required"`
	Address    string `form:"address" validate:"required"`
	DealType   string `form:"dealType" validate:"required"`
	LoanAmount string `form:"loanAmount" validate:"required"`
	Details    string `form:"details"`
}

// Reasons a submission is rejected.
const (
	ReasonMissing      = "missing"
	ReasonInvalidEmail = "invalid_email"
)

// FieldError names the first field that failed validation.
type FieldError struct {
	Field  string // form name, e.g. "dealType"
	Reason string // ReasonMissing or ReasonInvalidEmail
}

func (e *FieldError) Error() string {
	if e.Reason == ReasonInvalidEmail {
		return "submission: " + e.Field + " is not a valid email address"
	}
	return "submission: " + e.Field + " is required"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report form names ("dealType") rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FromForm builds a sanitized Submission from posted form values. Only the
// first value of each field is used.
func FromForm(form url.Values) Submission {
	return Submission{
		Name:       sanitizeLine(form.Get("name")),
		Email:      sanitizeEmail(form.Get("email")),
		Phone:      sanitizeLine(form.Get("phone")),
		Address:    sanitizeLine(form.Get("address")),
		DealType:   sanitizeLine(form.Get("dealType")),
		LoanAmount: sanitizeAmount(form.Get("loanAmount")),
		Details:    sanitizeMultiline(form.Get("details")),
	}
}

// Validate checks every required field before the email format, so a form
// with both an empty phone and a malformed email reports the missing field.
// The returned error is a *FieldError.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var invalid *FieldError
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			return &FieldError{Field: fe.Field(), Reason: ReasonMissing}
		case "email":
			if invalid == nil {
				invalid = &FieldError{Field: fe.Field(), Reason: ReasonInvalidEmail}
			}
		}
	}
	if invalid != nil {
		return invalid
	}
	return err
}
