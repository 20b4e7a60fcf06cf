package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldIssue describes one failed validation rule.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationDetails flattens validator errors into field issues.
// Field paths use the json names registered by the validate package.
func ValidationDetails(err error) []FieldIssue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []FieldIssue{{Field: "body", Issue: err.Error()}}
	}
	out := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldIssue{Field: fieldPath(fe), Issue: issueFor(fe)})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	// Drop the top-level struct name.
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return ns
}

func issueFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email"
	case "integer":
		return "must be an integer"
	default:
		return fe.Tag()
	}
}

// BindError answers a failed JSON bind. A well-formed body carrying a value
// of the wrong type is a validation failure (422); anything else is 400.
func BindError(c *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid request payload.",
			[]FieldIssue{{Field: field, Issue: "must be " + kindName(typeErr.Type)}})
		return
	}
	Error(c, http.StatusBadRequest, "invalid_json", "Invalid JSON body.", nil)
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a different type"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	default:
		return "a " + t.Kind().String()
	}
}
