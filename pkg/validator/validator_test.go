package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Email       string  `validate:"required,email"`
	Password    string  `validate:"required,min=8"`
	DisplayName *string `validate:"omitempty,max=100"`
}

func TestValidate_Success(t *testing.T) {
	s := testStruct{Email: "ava@example.com", Password: "Str0ng!pass"}
	assert.NoError(t, Validate(s))
}

func TestValidate_MissingRequired(t *testing.T) {
	s := testStruct{Email: "ava@example.com"}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Password")
	assert.Equal(t, "is required", fields["Password"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	s := testStruct{Email: "not-an-email", Password: "Str0ng!pass"}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestValidate_TooShort(t *testing.T) {
	s := testStruct{Email: "ava@example.com", Password: "short"}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Password"], "at least 8")
}

func TestValidate_OptionalFieldSkippedWhenNil(t *testing.T) {
	s := testStruct{Email: "ava@example.com", Password: "Str0ng!pass", DisplayName: nil}
	assert.NoError(t, Validate(s))
}

func TestValidationError_MessageJoinsFields(t *testing.T) {
	err := Validate(testStruct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email")
	assert.Contains(t, err.Error(), "Password")
}
