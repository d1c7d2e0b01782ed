package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/influencore/apiclient/apierror"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError is one failed check, keyed by the field's config or JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report mapstructure (config) or json (payload) names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
		validate.RegisterValidation("http_method", func(fl validator.FieldLevel) bool {
			_, ok := httpMethods[strings.ToUpper(fl.Field().String())]
			return ok
		})
	})
	return validate
}

var httpMethods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "OPTIONS": {},
}

// Validate validates a struct using its `validate` tags.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// InvalidValidationError: s was not a struct.
		return apierror.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(validationErrors))
	parts := make([]string, len(validationErrors))
	for i, e := range validationErrors {
		fields[i] = FieldError{Field: fieldPath(e.Namespace()), Message: describe(e)}
		parts[i] = fields[i].Field + ": " + fields[i].Message
	}

	return apierror.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}

// Fields returns the field errors carried by an error returned from Validate.
func Fields(err error) []FieldError {
	appErr, ok := apierror.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// messages maps a validator tag to a phrase; %s is replaced by the tag
// parameter.
var messages = map[string]string{
	"required":    "is required",
	"required_if": "is required when %s",
	"url":         "must be a valid URL",
	"email":       "must be a valid email address",
	"min":         "must be at least %s characters",
	"max":         "must be at most %s characters",
	"oneof":       "must be one of: %s",
	"http_method": "must be an HTTP method",
	"startswith":  "must start with %s",
	"gt":          "must be greater than %s",
	"gte":         "must be at least %s",
	"lte":         "must be at most %s",
}

func describe(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
