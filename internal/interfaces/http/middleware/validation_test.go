package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationProbe struct {
	Name   string  `json:"name" binding:"required,min=3"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Status string  `json:"status" binding:"omitempty,oneof=OPEN CLOSED"`
}

func validate(t *testing.T, probe validationProbe) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v.Struct(probe)
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	err := validate(t, validationProbe{Name: "ab"})
	require.Error(t, err)

	details := FormatValidationErrors(err)
	assert.Contains(t, details, "name: must be at least 3 characters")
	assert.Contains(t, details, "amount: this field is required")
}

func TestFormatValidationErrors_OneOf(t *testing.T) {
	err := validate(t, validationProbe{Name: "abc", Amount: 1, Status: "HALF"})
	require.Error(t, err)

	assert.Contains(t, FormatValidationErrors(err), "status: must be one of: OPEN CLOSED")
}

func TestFormatValidationErrors_PlainError(t *testing.T) {
	assert.Equal(t, "boom", FormatValidationErrors(errors.New("boom")))
}
