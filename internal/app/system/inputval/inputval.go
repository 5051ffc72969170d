// Package inputval validates decoded request bodies using struct tags.
//
// Fields carry a `validate` tag with the rules and a `label` tag with the
// human name used in messages:
//
//	type registerInput struct {
//	    Password string `json:"password" validate:"required,min=6" label:"Password"`
//	    Role     string `json:"role" validate:"required,role" label:"Role"`
//	}
//
// Custom rules registered here: role, severity, issuestatus.
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string // label, or the Go field name when no label is set
	Tag     string // failed rule, e.g. "required"
	Message string
}

// Result collects the field errors from Validate.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Missing reports whether any "required" rule failed.
func (r *Result) Missing() bool {
	for _, e := range r.Errors {
		if e.Tag == "required" {
			return true
		}
	}
	return false
}

// NotRequired returns the first message whose rule is not "required", or "".
func (r *Result) NotRequired() string {
	for _, e := range r.Errors {
		if e.Tag != "required" {
			return e.Message
		}
	}
	return ""
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(fl.Field().String())
		})
		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return models.IsValidSeverity(fl.Field().String())
		})
		_ = v.RegisterValidation("issuestatus", func(fl validator.FieldLevel) bool {
			return models.IsValidStatus(fl.Field().String())
		})
	})
	return v
}

// Validate runs the tag rules on s (a struct or pointer to struct).
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "email":
		return "A valid email address is required"
	case "latitude", "longitude":
		return label + " is out of range"
	case "datauri", "startswith":
		return label + " must be an image data URL"
	}
	return "Invalid " + strings.ToLower(label)
}
