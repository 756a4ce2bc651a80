package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	ok, err := VerifyPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("x", maxPasswordLength+1))
	assert.Error(t, err)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA", "$argon2id$v=18$m=1,t=1,p=1$AAAA$AAAA"} {
		ok, err := VerifyPassword(hash, "secret")
		assert.NoError(t, err, hash)
		assert.False(t, ok, hash)
	}
}

func TestCheckHash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, CheckHash(hash))

	for _, bad := range []string{"", "secret", "argon2id$v=19$m=1,t=1,p=1$AAAA$AAAA", "$argon2id$v=19$m=1,t=0,p=1$AAAA$AAAA", "$argon2id$v=19$m=1,t=1,p=1$AAAA$"} {
		assert.ErrorIs(t, CheckHash(bad), ErrMalformedHash, bad)
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again, "key is persisted")
}

func TestLoadOrGenerateKey_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid auth key length")
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	svc, err := NewTokenService(key, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTokenService(t)

	token, expiresAt, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Host)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	svc := newTokenService(t)

	a, _, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)
	b, _, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)

	ca, err := svc.VerifyAccessToken(a)
	require.NoError(t, err)
	cb, err := svc.VerifyAccessToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.TokenID, cb.TokenID)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTokenService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	token, _, err := newTokenService(t).GenerateAccessToken("admin")
	require.NoError(t, err)

	_, err = newTokenService(t).VerifyAccessToken(token)
	assert.Error(t, err)

	_, err = newTokenService(t).VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Hour)
	assert.Error(t, err)
}
