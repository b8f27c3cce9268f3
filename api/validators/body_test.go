package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

type confirmBody struct {
	Reference string `json:"reference" validate:"required,len=4,numeric"`
	Method    string `json:"method" validate:"required,oneof=cod gcash"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func decode(t *testing.T, body string) (confirmBody, error) {
	t.Helper()

	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dest confirmBody
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBody(t *testing.T) {
	dest, err := decode(t, `{"reference":"1234","method":"gcash"}`)
	require.NoError(t, err)
	assert.Equal(t, "1234", dest.Reference)
	assert.Equal(t, "gcash", dest.Method)
}

func TestDecodeJSONBody_RejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"reference":"1234","method":"cod","extra":true}`)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "invalid request body", typed.Message())
}

func TestDecodeJSONBody_RejectsMalformedJSON(t *testing.T) {
	_, err := decode(t, `{"reference":`)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBody_ValidationDetails(t *testing.T) {
	_, err := decode(t, `{"reference":"12a","method":"wallet","email":"not-an-email"}`)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "validation failed", typed.Message())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be exactly 4 characters", details["reference"])
	assert.Equal(t, "must be one of cod gcash", details["method"])
	assert.Equal(t, "must be a valid email", details["email"])
}

func TestDecodeJSONBody_RequiredFields(t *testing.T) {
	_, err := decode(t, `{}`)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["reference"])
	assert.Equal(t, "is required", details["method"])
}
