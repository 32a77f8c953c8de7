package response

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	type upload struct {
		UserID string `json:"userId" validate:"required"`
		Month  int    `json:"month" validate:"min=0,max=11"`
		Role   string `json:"role" validate:"oneof=admin read-only"`
	}

	err := validator.New().Struct(upload{Month: 12, Role: "root"})
	require.Error(t, err)

	got := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t,
		"field UserID is a required field, field Month must be max 11, field Role must be one of: admin read-only",
		got.Error)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, Response{Status: StatusError, Error: "document not found"}, Error("document not found"))
	assert.Equal(t, Response{Status: StatusOK, Data: 1}, OKWithData(1))
}
