package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
	tokenRegex  = regexp.MustCompile(`^[a-z0-9]+$`)
)

// validate is the shared validator instance. Field names in errors come from
// the json tag so they match the names clients send.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("token", func(fl validator.FieldLevel) bool {
		return tokenRegex.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(strings.TrimSpace(fl.Field().String())) >= MinPasswordLength
	})

	return v
}

// Validator exposes the configured validator for packages that validate
// their own structs with the same custom tags (for example config).
func Validator() *validator.Validate {
	return validate
}

// ValidateStruct runs tag validation on v and converts failures into a
// *ValidationError listing every failing field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("payload", "is invalid", ErrInvalidFormat)
	}

	out := &ValidationError{Err: ErrValidation}
	for _, fe := range verrs {
		out.add(baseFieldName(fe.Field()), tagReason(fe))
	}
	return out.orNil()
}

// baseFieldName strips slice indexes such as "StatusCode[2]".
func baseFieldName(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}

// tagReason maps validation tags to short human readable reasons.
func tagReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return "must be true"
		}
		return "is required"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "digits":
		return "must contain only digits"
	case "password":
		return "must be at least " + strconv.Itoa(MinPasswordLength) + " characters excluding surrounding spaces"
	case "token":
		return "must contain only lowercase letters and digits"
	case "eq":
		return "must be " + fe.Param()
	default:
		return "is invalid"
	}
}
