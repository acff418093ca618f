package reports

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/leebenson/conform"

	"alternanceetmoi.fr/reports/utils"
)

// Input holds the editable fields of a report as submitted by the form.
type Input struct {
	Date    string `form:"date" conform:"trim" validate:"required,datetime=2006-01-02"`
	Title   string `form:"title" conform:"trim" validate:"required,max=255"`
	Content string `form:"content" conform:"trim" validate:"required"`
}

// FieldErrors maps form fields to message ids.
type FieldErrors fiber.Map

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	return "invalid report fields: " + strings.Join(keys, ", ")
}

func (e FieldErrors) Unwrap() error {
	return ErrInvalidInput
}

var (
	validate     *validator.Validate
	onceValidate sync.Once
)

func inputValidator() *validator.Validate {
	onceValidate.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}

			return name
		})
	})

	return validate
}

// Normalize trims the input and validates it. Messages are i18n message ids.
func (in *Input) Normalize() error {
	if err := conform.Strings(in); err != nil {
		return err
	}

	errs := fiber.Map{}

	if err := inputValidator().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		for _, fe := range verrs {
			errs = utils.AddError(errs, fe.Field(), messageFor(fe))
		}
	}

	if len(errs) > 0 {
		return FieldErrors(errs)
	}

	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "ErrorFieldRequired"
	case "datetime":
		return "ErrorInvalidDate"
	case "max":
		return "ErrorFieldTooLong"
	default:
		return "ErrorFieldInvalid"
	}
}
