package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorDetail struct {
	Field string `json:"field"`
	Info  string `json:"info"`
}

// respondBindError answers 400, listing each failed field when the binding
// error came from the validator.
func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details := make([]errorDetail, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, errorDetail{
			Field: fieldErr.Field(),
			Info:  validationMessage(fieldErr),
		})
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "gte":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "lte":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
