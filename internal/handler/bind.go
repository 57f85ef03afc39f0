package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON decodes and validates the body, answering 400 on failure
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondBadRequest(c, "Invalid request body", parseBindError(err, out, "json"))
		return false
	}
	return true
}

// bindQuery decodes and validates the query string, answering 400 on failure
func bindQuery(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindQuery(out); err != nil {
		respondBadRequest(c, "Invalid query parameters", parseBindError(err, out, "form"))
		return false
	}
	return true
}

// parseBindError maps binding failures to field -> message using the
// wire names of the fields
func parseBindError(err error, out interface{}, tagKey string) map[string]string {
	rootType := baseStructType(out)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldError := range validationErrors {
			name := wireName(rootType, fieldError.StructField(), tagKey)
			if _, exists := fields[name]; !exists {
				fields[name] = validationMessage(fieldError.Tag(), fieldError.Param())
			}
		}
		return fields
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return map[string]string{"body": "invalid JSON syntax"}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := strings.TrimSpace(typeError.Field)
		if sf, ok := fieldByName(rootType, field); ok {
			field = tagName(sf, "json")
		}
		if field == "" {
			field = "body"
		}
		return map[string]string{field: fmt.Sprintf("must be of type %s", typeError.Type.String())}
	}

	// final fallback if the error could not be deciphered
	return map[string]string{"body": err.Error()}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

func fieldByName(t reflect.Type, name string) (reflect.StructField, bool) {
	if t == nil || name == "" {
		return reflect.StructField{}, false
	}
	// json reports the wire name; match it back to the struct field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if tagName(sf, "json") == name || sf.Name == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func wireName(rootType reflect.Type, structField, tagKey string) string {
	if rootType != nil {
		if sf, ok := rootType.FieldByName(structField); ok {
			return tagName(sf, tagKey)
		}
	}
	return structField
}

func tagName(sf reflect.StructField, tagKey string) string {
	name, _, _ := strings.Cut(sf.Tag.Get(tagKey), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
