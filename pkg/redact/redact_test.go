package redact_test

import (
	"testing"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_MasksNestedKeys(t *testing.T) {
	r, err := redact.New("password", "ssn")
	require.NoError(t, err)

	input := map[string]any{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
		"list": []any{map[string]any{"password": "x"}},
	}

	out := r.Map(input)

	assert.Equal(t, "jdoe", out["username"])
	assert.Equal(t, redact.Mask, out["user_password"])
	details := out["details"].(map[string]any)
	assert.Equal(t, "123 St", details["address"])
	assert.Equal(t, redact.Mask, details["ssn_number"])
	assert.Equal(t, redact.Mask, out["list"].([]any)[0].(map[string]any)["password"])

	// input untouched
	assert.Equal(t, "secret123", input["user_password"])
	assert.Equal(t, "999-99-9999", input["details"].(map[string]any)["ssn_number"])
}

func TestValue_Credentials(t *testing.T) {
	out, err := redact.Value(domain.Credentials{AccessToken: "at", RefreshToken: "rt", Role: "admin"})
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, redact.Mask, m["access_token"])
	assert.Equal(t, redact.Mask, m["refresh_token"])
	assert.Equal(t, "admin", m["role"])
}

func TestMap_EmptyValuesStayEmpty(t *testing.T) {
	out := redact.Map(map[string]any{"accessToken": "", "refreshToken": nil})
	assert.Equal(t, "", out["accessToken"])
	assert.Nil(t, out["refreshToken"])
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := redact.New("(")
	assert.Error(t, err)
}
