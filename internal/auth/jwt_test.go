package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	token, err := m.GenerateToken("user-42")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestGenerateToken_RequiresUserID(t *testing.T) {
	_, err := NewJWTManager(testSecret, time.Hour).GenerateToken("")
	assert.Error(t, err)
}

func TestValidateToken_SubjectFallback(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sub-only",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-only", claims.UserID)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	expired, err := NewJWTManager(testSecret, -time.Minute).GenerateToken("u")
	require.NoError(t, err)

	otherKey, err := NewJWTManager("another-secret-another-secret-xx", time.Hour).GenerateToken("u")
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": otherKey,
		"no user":      noUser,
		"wrong alg":    hs512,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestValidator(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.GenerateToken("user-7")
	require.NoError(t, err)

	claims, err := m.Validator()(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)

	_, err = m.Validator()("bogus")
	assert.Error(t, err)
}
