package domain

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"math"
	"reflect"
	"strconv"
	"strings"
)

type Validation struct {
	validator *validator.Validate
}

func NewValidation() *Validation {
	v := validator.New()
	v.RegisterValidation("notblank", validateNotBlank)
	v.RegisterTagNameFunc(fieldName)
	return &Validation{validator: v}
}

// validateNotBlank rejects empty and whitespace-only strings
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// fieldName reports fields by their form or json name
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s %s", v.Field, v.Message)
}

// ValidationErrors is a slice of ValidationError
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, ve := range v {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets callers match any ValidationErrors against ErrValidation
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Validate returns nil when i passes every rule
func (v *Validation) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var errs ValidationErrors
	for _, ve := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   ve.Field(),
			Message: tagMessage(ve),
		})
	}
	return errs
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

// ParsePrice converts a submitted price into a number. Surrounding
// whitespace is ignored; anything else that is not a finite number is a
// validation error on the price field.
func ParsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ValidationErrors{{Field: "price", Message: "must be a number"}}
	}
	return price, nil
}
