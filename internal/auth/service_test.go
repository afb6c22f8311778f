package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestLoginIssueValidate(t *testing.T) {
	svc := NewService("secret", "admin", "admin123", time.Hour)

	token, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Subject)
	require.Equal(t, RoleAdmin, claims.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestLoginRejectsWrongCredentialsUniformly(t *testing.T) {
	svc := NewService("secret", "admin", "admin123", time.Hour)

	cases := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"someone", "admin123"},
		{"", ""},
		{"admin ", "admin123"},
	}
	for _, tc := range cases {
		token, err := svc.Login(tc.user, tc.pass)
		require.ErrorIs(t, err, ErrInvalidCredentials, "user=%q", tc.user)
		require.Empty(t, token)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("secret", "admin", "admin123", time.Minute)
	issuedAt := time.Now().Add(-2 * time.Minute)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.IssueToken("admin")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := NewService("other-secret", "admin", "admin123", time.Hour)
	token, err := issuer.IssueToken("admin")
	require.NoError(t, err)

	svc := NewService("secret", "admin", "admin123", time.Hour)
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnsignedAndMissing(t *testing.T) {
	svc := NewService("secret", "admin", "admin123", time.Hour)

	_, err := svc.ValidateToken("  ")
	require.True(t, errors.Is(err, ErrMissingToken))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenLifetimeMatchesTTL(t *testing.T) {
	svc := NewService("secret", "admin", "admin123", 90*time.Minute)
	require.Equal(t, 90*time.Minute, svc.TokenTTL())

	token, err := svc.IssueToken("admin")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, svc.TokenTTL(), claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	require.Equal(t, 4*time.Hour, NewService("secret", "admin", "admin123", 0).TokenTTL())
}
