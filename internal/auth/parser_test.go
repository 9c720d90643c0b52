package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, secret, subject, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseRoundTrip(t *testing.T) {
	p := NewParser("s3cret")
	token := issue(t, "s3cret", "farmer-42", "admin", time.Hour)

	principal, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "farmer-42", principal.FarmerID)
	assert.Equal(t, "ADMIN", principal.Role)
	assert.True(t, principal.IsAdmin())
}

func TestParseRejects(t *testing.T) {
	p := NewParser("s3cret")

	expired := issue(t, "s3cret", "farmer-42", "", -time.Minute)
	otherKey := issue(t, "other", "farmer-42", "", time.Hour)
	noSubject := issue(t, "s3cret", "", "", time.Hour)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "farmer-42"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"wrong key": otherKey,
		"no sub":    noSubject,
		"no exp":    noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}
