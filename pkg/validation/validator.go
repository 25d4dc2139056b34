package validation

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	monthDayPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
)

// quoteStatuses mirrors the status codes exported by the business system
var quoteStatuses = map[string]bool{
	"EL": true, "V": true, "E": true, "A": true, "AP": true, "R": true, "AN": true,
}

// Validator returns the shared validator with the custom rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("quote_status", func(fl validator.FieldLevel) bool {
			return quoteStatuses[fl.Field().String()]
		})
		_ = validate.RegisterValidation("month_day", func(fl validator.FieldLevel) bool {
			return monthDayPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct validates s and converts failures into a ValidationError
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return NewValidationError(errs)
	}
	return err
}

// IsMonthDay reports whether s is a valid MM-DD string
func IsMonthDay(s string) bool {
	return monthDayPattern.MatchString(s)
}
