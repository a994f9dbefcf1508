// Package validation checks request bodies with struct tags.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"fibra-backend/internal/rut"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// decimals are compared as floats so gt/gte/lte tags apply to them
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = validate.RegisterValidation("rut", func(fl validator.FieldLevel) bool {
			return rut.Valid(fl.Field().String())
		})
	})
	return validate
}

// FieldError carries the per-field failures of a request body.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+": "+tag)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}

// Struct validates v and returns a *FieldError on failure.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := &FieldError{Fields: make(map[string]string, len(verrs))}
	for _, ve := range verrs {
		fe.Fields[ve.Field()] = ve.Tag()
	}
	return fe
}

// ParseBody binds and validates a request body in one step.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return Struct(out)
}
