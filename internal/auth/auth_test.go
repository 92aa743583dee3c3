package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("", ""))
	assert.False(t, CheckPassword("s3cret!", ""))
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for range 20 {
		p, err := GeneratePassword()
		require.NoError(t, err)
		assert.Len(t, p, passwordLength)
		for _, r := range p {
			assert.True(t, strings.ContainsRune(passwordCharset, r), "unexpected character %q", r)
		}
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.Error(t, err)

	s, err := NewTokenService("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.ttl)
}

func TestIssueAndVerify(t *testing.T) {
	s, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)

	token, err := s.Issue(42, true)
	require.NoError(t, err)

	claims, ok := s.Verify(token)
	require.True(t, ok)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	claims, ok = s.Verify("Bearer " + token)
	require.True(t, ok, "bearer prefix is accepted")
	assert.Equal(t, uint(42), claims.UserID)
}

func TestVerifyRejects(t *testing.T) {
	s, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue(1, false)
	require.NoError(t, err)

	expiredSvc, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.Issue(1, false)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "bearer only", token: "Bearer "},
		{name: "garbage", token: "not-a-token"},
		{name: "foreign secret", token: foreign},
		{name: "expired", token: expired},
		{name: "none algorithm", token: none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, ok := s.Verify(tt.token)
			assert.False(t, ok)
			assert.Nil(t, claims)
		})
	}
}
