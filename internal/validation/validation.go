// Package validation wraps a single go-playground validator instance with the
// date and clock tags used by venue availability payloads. The same instance
// validates incoming request bodies on the server and decoded backend records
// in the API client.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared validator with custom tags registered:
//   isodate – string parses as YYYY-MM-DD
//   clock   – string is HH:MM or HH:MM:SS on a 24-hour clock
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their json names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		mustRegister("isodate", func(fl validator.FieldLevel) bool {
			return IsDate(fl.Field().String())
		})
		mustRegister("clock", func(fl validator.FieldLevel) bool {
			return IsClock(fl.Field().String())
		})
	})
	return v
}

// mustRegister adds a custom tag to the shared validator and panics when
// the tag is rejected.
func mustRegister(tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Validator().Struct(s)
}

// IsDate reports whether s is a real calendar date in ISO form.
func IsDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// IsClock reports whether s is a 24-hour HH:MM[:SS] time of day.
func IsClock(s string) bool {
	return clockRe.MatchString(s)
}

// EchoValidator adapts the shared validator to echo.Validator so handlers
// can call c.Validate after c.Bind.
type EchoValidator struct{}

// Validate implements echo.Validator.
func (EchoValidator) Validate(i interface{}) error {
	return Validator().Struct(i)
}

// Message turns a validation error into a short client-facing sentence,
// e.g. "date must be YYYY-MM-DD; venue_id is required". Other errors are
// returned as their Error text.
func Message(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "isodate":
		return fe.Field() + " must be YYYY-MM-DD"
	case "clock":
		return fe.Field() + " must be HH:MM or HH:MM:SS"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be an email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
