// Package request decodes and validates HTTP request input.
package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

const maxBodyBytes = 1 << 20

var (
	validate     = newValidator()
	queryDecoder = newQueryDecoder()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("schema"), ",")
		}

		return name
	})

	return v
}

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// DecodeJSON strictly decodes the body into dst and validates it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("body", "malformed JSON: %v", err)
	}
	if dec.More() {
		return apperr.Validation("body", "unexpected data after JSON object")
	}

	return Validate(dst)
}

// DecodeQuery decodes the URL query into dst and validates it.
func DecodeQuery(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for field := range multi {
				return apperr.Validation(field, "has an invalid value")
			}
		}

		return apperr.Validation("query", "%v", err)
	}

	return Validate(dst)
}

// Validate runs struct tag validation and reports the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]

		return apperr.Validation(fieldPath(fe), "%s", describe(fe))
	}

	return err
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " element(s)"
		}

		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must be formatted as " + fe.Param()
	}

	return "is invalid"
}
