// Package validation provides HTTP request validation utilities using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
//
// Besides the built-in tags it understands event_type, theme,
// invitation_type, rsvp_status, dietary, language and share_code.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "event_type", func(fl validator.FieldLevel) bool {
		return domain.EventType(fl.Field().String()).IsValid()
	})
	mustRegister(v, "theme", func(fl validator.FieldLevel) bool {
		return domain.Theme(fl.Field().String()).IsValid()
	})
	mustRegister(v, "invitation_type", func(fl validator.FieldLevel) bool {
		return domain.InvitationType(fl.Field().String()).IsValid()
	})
	mustRegister(v, "rsvp_status", func(fl validator.FieldLevel) bool {
		return domain.RSVPStatus(fl.Field().String()).IsValid()
	})
	mustRegister(v, "dietary", func(fl validator.FieldLevel) bool {
		return domain.DietaryChoice(fl.Field().String()).IsValid()
	})
	mustRegister(v, "language", func(fl validator.FieldLevel) bool {
		_, err := domain.CanonicalLanguage(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "share_code", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) < 4 || len(code) > 32 {
			return false
		}
		for _, r := range code {
			if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				return false
			}
		}
		return true
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag, reporting failures under field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}
	return domainerrors.FieldValidation(field, field+" "+v.friendlyMessage(validationErrs[0]))
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read like venue.city or children[0].name.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "datetime":
		return "must match the format " + e.Param()
	case "event_type":
		return "must be a known event type"
	case "theme":
		return "must be a known theme"
	case "invitation_type":
		return "must be single, single-plus-one, couple, family or group"
	case "rsvp_status":
		return "must be pending, confirmed, declined or maybe"
	case "dietary":
		return "must be a known dietary choice"
	case "language":
		return "must be a valid language tag"
	case "share_code":
		return "must be 4 to 32 letters or digits"
	default:
		return "is invalid"
	}
}
