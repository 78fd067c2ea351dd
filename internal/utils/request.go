package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/marketplace/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. Field names in messages use
// the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ParseBody decodes the JSON body into dst, rejecting unknown fields, then
// validates dst's struct tags.
func ParseBody(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required.")
		}
		return apperr.Validation(fmt.Sprintf("Invalid request body: %s", strings.TrimPrefix(err.Error(), "json: ")))
	}

	return ValidateStruct(dst)
}

// ValidateStruct runs tag validation and reports the first failing field.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation(describeFieldError(fieldErrs[0]))
	}
	return apperr.Validation(err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Invalid %s. %s is required.", field, field)
	case "email":
		return "Invalid email. please check the email and try again."
	case "min":
		return fmt.Sprintf("Invalid %s. Expected at least %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("Invalid %s. Expected at most %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("Invalid %s. Expected a value greater than %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("Invalid %s. Expected a value of at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("Invalid %s. Expected one of: %s.", field, fe.Param())
	default:
		return fmt.Sprintf("Invalid %s.", field)
	}
}
