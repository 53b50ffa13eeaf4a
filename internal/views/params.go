package views

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
)

// Scale selects linear or natural-log values
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// Level selects the geography of a view
type Level string

const (
	LevelState Level = "state"
	LevelMetro Level = "metro"
	LevelZip   Level = "zip"
)

// Params carries every control a view may read. Views ignore the ones they
// do not use.
type Params struct {
	Year      int      `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Scale     Scale    `json:"scale,omitempty" validate:"omitempty,oneof=linear log"`
	States    []string `json:"states,omitempty" validate:"omitempty,max=51,dive,len=2,uppercase"`
	State     string   `json:"state,omitempty" validate:"omitempty,len=2,uppercase"`
	Level     Level    `json:"level,omitempty" validate:"omitempty,oneof=state metro zip"`
	Bins      int      `json:"bins,omitempty" validate:"omitempty,min=1,max=200"`
	Amplitude *float64 `json:"amplitude,omitempty" validate:"omitempty,min=0,max=100"`
}

// IsLog reports whether values should be log-transformed
func (p Params) IsLog() bool { return p.Scale == ScaleLog }

// ErrInvalidParams marks parameter failures
var ErrInvalidParams = errors.New("invalid view parameters")

// FieldError names one rejected parameter
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct-level constraints shared by every view
func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidParams([]FieldError{{Field: "params", Message: err.Error()}})
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldName(fe), Message: describeTag(fe)})
	}
	return invalidParams(fields)
}

func fieldName(fe validator.FieldError) string {
	// Namespace is "Params.states[0]"; drop the struct prefix.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "uppercase":
		return "must be an upper-case state code"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func invalidParams(fields []FieldError) error {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + " " + f.Message
	}
	return apperrors.NewAppValidationError(strings.Join(msgs, "; "), ErrInvalidParams).
		WithContext("fields", fields)
}

// FieldErrors extracts the rejected fields from a parameter error
func FieldErrors(err error) []FieldError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	fields, _ := appErr.Context["fields"].([]FieldError)
	return fields
}
