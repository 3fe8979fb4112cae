package book

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// currentYear is the upper bound for PublishedYear.
var currentYear = func() int { return time.Now().Year() }

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("genre", validateGenre)
	validate.RegisterValidation("status", validateStatus)
	validate.RegisterValidation("notfuture", validateNotFuture)
}

func validateGenre(fl validator.FieldLevel) bool {
	return IsGenre(fl.Field().String())
}

func validateStatus(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}

func validateNotFuture(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(currentYear())
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a create or update body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// rules mirrors the struct tags of Fields so patches are checked field by field.
var rules = map[string]string{
	"title":         "required,max=200",
	"author":        "required,min=2,max=100",
	"genre":         "required,genre",
	"publishedYear": "required,gte=1000,notfuture",
	"status":        "required,status",
}

// ValidateFields checks a complete create body.
func ValidateFields(f Fields) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	return out
}

// ValidatePatch checks only the fields present in p.
func ValidatePatch(p Patch) error {
	out := &ValidationError{}
	check := func(field string, value any) {
		err := validate.Var(value, rules[field])
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			out.Fields = append(out.Fields, FieldError{
				Field:   field,
				Message: message(field, verrs[0].Tag(), verrs[0].Param()),
			})
		}
	}

	if p.Title != nil {
		check("title", *p.Title)
	}
	if p.Author != nil {
		check("author", *p.Author)
	}
	if p.Genre != nil {
		check("genre", *p.Genre)
	}
	if p.PublishedYear != nil {
		check("publishedYear", *p.PublishedYear)
	}
	if p.Status != nil {
		check("status", string(*p.Status))
	}

	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

func message(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "notfuture":
		return fmt.Sprintf("%s cannot be later than %d", field, currentYear())
	case "genre":
		return fmt.Sprintf("%s must be one of the catalog genres", field)
	case "status":
		return fmt.Sprintf("%s must be either %s or %s", field, StatusAvailable, StatusIssued)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
