package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Custom validations
	v.RegisterValidation("strong_password", validateStrongPassword)
	v.RegisterValidation("plan_upgrade", validatePlanUpgrade)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Message turns a validation error into a short user-facing sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "email":
		return "Invalid email format"
	case "strong_password":
		return "Password must be at least 8 characters with uppercase letter and number"
	case "plan_upgrade":
		return "Invalid plan"
	}
	return fmt.Sprintf("Invalid %s", fe.Field())
}

// Var validates a single value against a tag list
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// IsEmail reports whether s is a syntactically valid address
func (v *Validator) IsEmail(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

// IsStrongPassword reports whether s passes the strong_password rule
func (v *Validator) IsStrongPassword(s string) bool {
	return v.validate.Var(s, "strong_password") == nil
}

// At least 8 characters with one uppercase letter and one digit
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasDigit
}

// Only paid plans can be purchased
func validatePlanUpgrade(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "pro", "enterprise":
		return true
	}
	return false
}
