package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/nyaruka/phonenumbers"

	"github.com/Skotchmaster/shops_api/internal/apperr"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return IsMobileNumber(fl.Field().String())
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		// bcrypt only looks at the first 72 bytes; max counts runes
		_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return len(fl.Field().String()) <= n
		})
		instance = v
	})
	return instance
}

// IsMobileNumber reports whether s is an international (+CC) number that
// can receive calls on a mobile line.
func IsMobileNumber(s string) bool {
	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(num) {
		return false
	}
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE, phonenumbers.PAGER:
		return true
	}
	return false
}

// Struct validates v against its `validate` tags. The returned error wraps
// apperr.ErrValidation and names the first offending field.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, message(verrs[0]))
	}
	return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " is not a valid email address"
	case "mobile":
		return field + " is not a valid mobile phone number"
	case "min":
		if e.Kind() == reflect.String {
			return field + " must be at least " + e.Param() + " characters"
		}
		return field + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return field + " must be at most " + e.Param() + " characters"
		}
		return field + " must be at most " + e.Param()
	case "maxbytes":
		return field + " must be at most " + e.Param() + " bytes"
	case "gt":
		return field + " must be greater than " + e.Param()
	default:
		return field + " is invalid"
	}
}
