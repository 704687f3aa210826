package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "studentpulse/internal/errors"
	"studentpulse/pkg/contracts/domain"
)

// Validator validates bound request parameters using struct tags. Field names
// in messages come from the query or json tag.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that knows the configured subject columns.
// Besides the built in tags it understands grade, attendance_level and
// subject.
func NewValidator(subjects []string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	known := make(map[string]struct{}, len(subjects)+1)
	for _, s := range subjects {
		known[s] = struct{}{}
	}
	known[domain.ColumnAverageScore] = struct{}{}

	v.RegisterValidation("grade", isGradeSelector)
	v.RegisterValidation("attendance_level", isAttendanceSelector)
	v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		_, ok := known[fl.Field().String()]
		return ok
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{validate: v}
}

// ValidateStruct validates v and converts failures into a 400 APIError
// listing every offending field.
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fieldName(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// fieldName strips slice indexes so grade[1] reports as grade
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		return name[:i]
	}
	return name
}

func formatValidationError(fe validator.FieldError) string {
	field := fieldName(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "grade":
		return fmt.Sprintf("%s must be one of: A, B, C, D, none; got %q", field, fe.Value())
	case "attendance_level":
		return fmt.Sprintf("%s must be one of: High, Medium, Low, none; got %q", field, fe.Value())
	case "subject":
		return fmt.Sprintf("%s %q is not a configured subject", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func isGradeSelector(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if domain.IsSelectNone(s) {
		return true
	}
	_, err := domain.ParseGrade(s)
	return err == nil
}

func isAttendanceSelector(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if domain.IsSelectNone(s) {
		return true
	}
	_, err := domain.ParseAttendanceLevel(s)
	return err == nil
}
