package utils

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a structured validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the standard response for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors"`
}

// HandleValidationErrors turns binding errors into a 400 response
func HandleValidationErrors(ctx *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	fields := make([]ValidationError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, ValidationError{
			Field:   toSnakeCase(fieldError.Field()),
			Message: getValidationErrorMessage(fieldError),
		})
	}

	ctx.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "validation_error",
		Errors: fields,
	})
}

// getValidationErrorMessage returns a human-readable message for a validation error
func getValidationErrorMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fieldError.Param(), " ", ", ")
	case "min":
		return "Must be at least " + fieldError.Param()
	case "max":
		return "Must be at most " + fieldError.Param()
	case "gte":
		return "Must be greater than or equal to " + fieldError.Param()
	case "lte":
		return "Must be less than or equal to " + fieldError.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "datetime":
		return "Must be a valid datetime in format " + fieldError.Param()
	default:
		return "Invalid value for this field"
	}
}

// toSnakeCase converts a Go field name to snake_case, keeping acronyms whole
func toSnakeCase(s string) string {
	if strings.Contains(s, "_") {
		return strings.ToLower(s)
	}

	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
