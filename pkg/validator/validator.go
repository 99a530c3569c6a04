// Package validator wraps go-playground/validator with the custom rules the
// verification workflow needs (NIN, BVN, one-time codes).
package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	elevenDigits = regexp.MustCompile(`^\d{11}$`)
	sixDigits    = regexp.MustCompile(`^\d{6}$`)
	bankAccount  = regexp.MustCompile(`^\d{10}$`)
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	v.registerCustomValidations()
	return v
}

func (v *Validator) registerCustomValidations() {
	// nin and bvn are both 11 numeric digits
	_ = v.validate.RegisterValidation("nin", func(fl validator.FieldLevel) bool {
		return elevenDigits.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("bvn", func(fl validator.FieldLevel) bool {
		return elevenDigits.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return sixDigits.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("bank_account", func(fl validator.FieldLevel) bool {
		return bankAccount.MatchString(fl.Field().String())
	})
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

// ValidateStructured returns a map of field -> error message for API responses
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	errs := make(map[string]string)
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				msg := fmt.Sprintf("failed validation on '%s'", e.Tag())
				switch e.Tag() {
				case "required":
					msg = "This field is required"
				case "nin":
					msg = "NIN must be exactly 11 digits"
				case "bvn":
					msg = "BVN must be exactly 11 digits"
				case "otp":
					msg = "Code must be exactly 6 digits"
				case "bank_account":
					msg = "Account number must be exactly 10 digits"
				}
				errs[e.Field()] = msg
			}
		}
	}
	return errs
}

// IsValidNIN reports whether s is a well-formed 11-digit identity number.
// Used by the state machine as its fail-fast check before any gateway call.
func IsValidNIN(s string) bool {
	return elevenDigits.MatchString(s)
}

// IsValidBVN reports whether s is a well-formed 11-digit bank number.
func IsValidBVN(s string) bool {
	return elevenDigits.MatchString(s)
}

// IsValidOTP reports whether s is a well-formed 6-digit one-time code.
func IsValidOTP(s string) bool {
	return sixDigits.MatchString(s)
}
