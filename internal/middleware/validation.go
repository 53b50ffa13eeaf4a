package middleware

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
)

// Validator checks request structs by their validate tags and reports
// fields by their JSON names
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that names fields after their json tag
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct returns a 400 APIError listing every rejected field
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InvalidRequestWithError(err)
	}
	fields := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(fields)
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// QueryParamValidator reads typed query parameters and collects the ones
// that do not parse, so a handler can reject them in one response
type QueryParamValidator struct {
	query  url.Values
	errors []apperrors.ValidationError
}

// NewQueryParamValidator wraps a request's query
func NewQueryParamValidator(query url.Values) *QueryParamValidator {
	return &QueryParamValidator{query: query}
}

// Has reports whether param is present and non-empty
func (v *QueryParamValidator) Has(param string) bool {
	return strings.TrimSpace(v.query.Get(param)) != ""
}

// String returns the trimmed value of param
func (v *QueryParamValidator) String(param string) string {
	return strings.TrimSpace(v.query.Get(param))
}

// Int parses an integer parameter; absent means zero
func (v *QueryParamValidator) Int(param string) int {
	raw := v.String(param)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.fail(param, fmt.Sprintf("%s must be a valid integer", param))
		return 0
	}
	return n
}

// Float parses an optional decimal parameter
func (v *QueryParamValidator) Float(param string) *float64 {
	raw := v.String(param)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.fail(param, fmt.Sprintf("%s must be a number", param))
		return nil
	}
	return &f
}

// List accepts repeated parameters and comma-separated values alike
func (v *QueryParamValidator) List(param string) []string {
	var out []string
	for _, raw := range v.query[param] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Enum returns param when it is one of allowed, or def when absent
func (v *QueryParamValidator) Enum(param string, allowed []string, def string) string {
	raw := v.String(param)
	if raw == "" {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(raw, a) {
			return a
		}
	}
	v.fail(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", ")))
	return def
}

func (v *QueryParamValidator) fail(param, message string) {
	v.errors = append(v.errors, apperrors.ValidationError{Field: param, Message: message})
}

// Err returns a 400 APIError for every parameter that failed to parse
func (v *QueryParamValidator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return apperrors.NewValidationErrors(v.errors)
}
