package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Card status validation
	validate.RegisterValidation("card_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		for _, s := range []string{"active", "blocked", ""} {
			if status == s {
				return true
			}
		}
		return false
	})

	// Transaction type validation
	validate.RegisterValidation("tx_type", func(fl validator.FieldLevel) bool {
		txType := fl.Field().String()
		for _, t := range []string{"deposit", "withdraw", "bonus", "adjustment", ""} {
			if txType == t {
				return true
			}
		}
		return false
	})

	// Card number: 4-32 chars, digits and dashes only
	validate.RegisterValidation("card_number", func(fl validator.FieldLevel) bool {
		number := fl.Field().String()
		if len(number) < 4 || len(number) > 32 {
			return false
		}
		for _, c := range number {
			if (c < '0' || c > '9') && c != '-' {
				return false
			}
		}
		return true
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = messageForTag(fe)
	}
	return details
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too small or too short"
	case "max":
		return "Value is too large or too long"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "card_status":
		return "Invalid card status"
	case "tx_type":
		return "Invalid transaction type"
	case "card_number":
		return "Invalid card number format"
	default:
		return "Invalid value"
	}
}
