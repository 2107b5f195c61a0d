package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/pkg/models"
)

func TestRequiredText(t *testing.T) {
	for _, in := range []string{"", " ", "\t", "\n  \r\n", " "} {
		_, ok := RequiredText(in)
		assert.False(t, ok, "%q should be rejected", in)
	}

	got, ok := RequiredText("  How do I ship?  ")
	assert.True(t, ok)
	assert.Equal(t, "How do I ship?", got)
}

func TestValidateRegisterRequest(t *testing.T) {
	req := &models.RegisterRequest{
		Email:    "  ada@example.com ",
		Password: "secret1",
		FullName: " Ada Lovelace ",
	}
	require.NoError(t, ValidateRegisterRequest(req))
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Ada Lovelace", req.FullName)

	short := &models.RegisterRequest{Email: "ada@example.com", Password: "12345", FullName: "Ada"}
	err := ValidateRegisterRequest(short)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	badEmail := &models.RegisterRequest{Email: "not-an-email", Password: "secret1", FullName: "Ada"}
	assert.Error(t, ValidateRegisterRequest(badEmail))

	noName := &models.RegisterRequest{Email: "ada@example.com", Password: "secret1"}
	assert.Error(t, ValidateRegisterRequest(noName))
}
