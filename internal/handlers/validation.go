package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
	"github.com/charlesng35/tarotgarden/pkg/validator"
)

const invalidPayload = "invalid request payload"

// validationMessages maps a validator tag to a message taking the field and the tag param.
var validationMessages = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"uuid":     "%s must be a valid UUID",
	"uuid4":    "%s must be a valid UUID",
	"oneof":    "%s must be one of: %s",
}

// bindAndValidate decodes the JSON body into dest and validates it. On failure it
// writes a 400 and returns false.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := validator.ValidateStruct(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest(describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return invalidPayload
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		messages = append(messages, describeFailure(failure))
	}
	return strings.Join(messages, "; ")
}

func describeFailure(f validator.ValidationError) string {
	field := strings.ToLower(strings.ReplaceAll(f.Field, "_", " "))
	if field == "" {
		field = "field"
	}

	format, ok := validationMessages[f.Tag]
	switch {
	case ok && f.Tag == "oneof":
		return fmt.Sprintf(format, field, strings.Join(strings.Fields(f.Param), ", "))
	case ok && strings.Count(format, "%s") == 2:
		return fmt.Sprintf(format, field, f.Param)
	case ok:
		return fmt.Sprintf(format, field)
	case f.Param != "":
		return fmt.Sprintf("%s failed validation: %s=%s", field, f.Tag, f.Param)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, f.Tag)
	}
}

// parseIntQuery reads an integer query parameter, falling back on absence or garbage.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return fallback
	}
	return parsed
}
