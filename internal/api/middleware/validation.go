package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// DomainValidator lets request DTOs add rules struct tags cannot express.
type DomainValidator interface {
	Validate() error
}

// ValidationError carries per-field failures back to the handler.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+" "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BindAndValidate decodes the JSON body into req, applying both struct tag
// validation and the DTO's own Validate method when present.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		fields := map[string]string{}
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrs {
				field := strings.ToLower(fieldError.Field())
				switch fieldError.Tag() {
				case "required":
					fields[field] = "is required"
				case "oneof":
					fields[field] = "must be one of the allowed values"
				case "min":
					fields[field] = "is too short"
				case "max":
					fields[field] = "is too long"
				default:
					fields[field] = "is invalid"
				}
			}
		} else {
			fields["request"] = "invalid JSON body"
		}
		return &ValidationError{Fields: fields}
	}

	if dv, ok := req.(DomainValidator); ok {
		if err := dv.Validate(); err != nil {
			return &ValidationError{Fields: map[string]string{"payload": err.Error()}}
		}
	}
	return nil
}
