package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "demo", true)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "demo", claims.Username)
	assert.True(t, claims.IsStaff)
}

func TestInitSwitchesTheSigningSecret(t *testing.T) {
	original := jwtSecret
	t.Cleanup(func() { jwtSecret = original })

	defaultToken, err := GenerateToken(1, "demo", false)
	require.NoError(t, err)

	Init("secret-from-config")

	// tokens signed under the old secret no longer verify
	_, err = ValidateToken(defaultToken)
	assert.Error(t, err)

	// new tokens are signed with the configured secret
	configuredToken, err := GenerateToken(1, "demo", false)
	require.NoError(t, err)
	claims, err := ValidateToken(configuredToken)
	require.NoError(t, err)
	assert.Equal(t, "demo", claims.Username)

	// an empty secret keeps whatever is configured
	Init("")
	_, err = ValidateToken(configuredToken)
	assert.NoError(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)

	token, err := GenerateToken(1, "demo", false)
	require.NoError(t, err)

	_, err = ValidateToken(token + "tampered")
	assert.Error(t, err)
}
