package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalhood/loyalhood/internal/auth"
)

const testKey = "test-secret-key-for-testing-only"

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey})

	token, expiresAt, err := svc.GenerateAdminToken("ops@loyalhood.xyz", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@loyalhood.xyz", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, auth.DefaultIssuer, claims.Issuer)
}

func TestJWTService_DefaultExpiry(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey})

	_, expiresAt, err := svc.GenerateAdminToken("ops", 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenExpiry), expiresAt, 5*time.Second)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAdminToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	svc1 := auth.NewJWTService(auth.JWTConfig{SigningKey: "key-one"})
	token, _, err := svc1.GenerateAdminToken("ops", time.Hour)
	require.NoError(t, err)

	svc2 := auth.NewJWTService(auth.JWTConfig{SigningKey: "key-two"})
	_, err = svc2.ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTService_WrongIssuerOrAudience(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey, Issuer: "issuer-one", Audience: "audience-one"})
	token, _, err := svc.GenerateAdminToken("ops", time.Hour)
	require.NoError(t, err)

	_, err = auth.NewJWTService(auth.JWTConfig{SigningKey: testKey, Issuer: "issuer-two", Audience: "audience-one"}).ValidateAdminToken(token)
	assert.Error(t, err)

	_, err = auth.NewJWTService(auth.JWTConfig{SigningKey: testKey, Issuer: "issuer-one", Audience: "audience-two"}).ValidateAdminToken(token)
	assert.Error(t, err)
}

func TestJWTService_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token := signClaims(t, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		Role: auth.RoleAdmin,
	})

	_, err := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey}).ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestJWTService_NotAdmin(t *testing.T) {
	now := time.Now()
	token := signClaims(t, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   "viewer",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "viewer",
	})

	_, err := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey}).ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrNotAdmin)
}

func TestJWTService_NoSigningKey(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{})
	assert.False(t, svc.Enabled())

	_, _, err := svc.GenerateAdminToken("ops", time.Hour)
	assert.ErrorIs(t, err, auth.ErrNoSigningKey)

	_, err = svc.ValidateAdminToken("anything")
	assert.ErrorIs(t, err, auth.ErrNoSigningKey)
}

func TestJWTService_EmptySubject(t *testing.T) {
	_, _, err := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey}).GenerateAdminToken("", time.Hour)
	assert.ErrorIs(t, err, auth.ErrEmptySubject)
}

func signClaims(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)
	return token
}
