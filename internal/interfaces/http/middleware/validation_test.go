package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationProbe struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	APIKey    string `json:"api_key" binding:"omitempty,max=8"`
}

func TestValidationErrorMessageUsesJSONFieldNames(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(validationProbe{})
	require.Error(t, err)

	msg := ValidationErrorMessage(err)
	assert.Contains(t, msg, "start_date")
	assert.Contains(t, msg, "required")
	assert.NotContains(t, msg, "StartDate")
}

func TestValidationErrorMessageTagWording(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(validationProbe{StartDate: "not-a-date", APIKey: "far-too-long-key"})
	require.Error(t, err)

	msg := ValidationErrorMessage(err)
	assert.Contains(t, msg, "2006-01-02 format")
	assert.Contains(t, msg, "at most 8 characters")
}

func TestValidationErrorMessagePassesThroughOtherErrors(t *testing.T) {
	err := errors.New("unexpected EOF")
	assert.Equal(t, "unexpected EOF", ValidationErrorMessage(err))
}
