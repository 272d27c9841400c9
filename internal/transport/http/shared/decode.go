package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate returns the process-wide validator. Field names in reported
// issues come from json tags.
func Validate() *validator.Validate {
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

// DecodeAndValidate reads a JSON body into dst and runs struct validation.
// On failure it writes the 400 response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := requestctx.GetRequestID(r.Context())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		case errors.Is(err, io.EOF):
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is empty", requestID)
		default:
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
		}
		return false
	}
	if err := Validate().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
			return false
		}
		v := NewValidator()
		for _, fe := range verrs {
			v.Add(fe.Field(), describe(fe))
		}
		v.Reject(w, requestID)
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "datetime":
		return "must match format " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
