package auth

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail = "parions@sport.fr"
	adminPass  = "s3cret-pass"
	secret     = "test-secret"
)

func newManager(t *testing.T, secret string) *Manager {
	t.Helper()
	hash, err := HashPassword(adminPass)
	require.NoError(t, err)
	return NewManager(secret, adminEmail, hash, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthenticateAndVerify(t *testing.T) {
	m := newManager(t, secret)

	tok, err := m.Authenticate(adminEmail, adminPass)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, id.Email)
}

func TestAuthenticateRejects(t *testing.T) {
	m := newManager(t, secret)

	for name, tc := range map[string]struct{ email, pass string }{
		"wrong password": {adminEmail, "nope"},
		"email case":     {strings.ToUpper(adminEmail), adminPass},
		"other email":    {"someone@else.fr", adminPass},
		"empty":          {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			tok, err := m.Authenticate(tc.email, tc.pass)
			assert.ErrorIs(t, err, ErrDenied)
			assert.Empty(t, tok)
		})
	}
}

func TestAuthenticateAlwaysComparesHash(t *testing.T) {
	m := newManager(t, secret)
	var hashes [][]byte
	m.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	for _, email := range []string{"someone@else.fr", adminEmail} {
		_, err := m.Authenticate(email, "nope")
		assert.ErrorIs(t, err, ErrDenied, email)
	}
	require.Len(t, hashes, 2)
	assert.NotEqual(t, m.passwordHash, hashes[0])
	assert.Equal(t, m.passwordHash, hashes[1])
}

func TestAuthenticateWithoutConfiguredHash(t *testing.T) {
	m := NewManager(secret, adminEmail, "", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := m.Authenticate(adminEmail, "")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestTokenLifetimeIsSevenDays(t *testing.T) {
	m := newManager(t, secret)
	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	tok, err := m.IssueToken(adminEmail)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(7*24*time.Hour - time.Minute) }
	_, err = m.Verify(tok)
	assert.NoError(t, err)

	m.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Minute) }
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	other := newManager(t, "another-secret")
	tok, err := other.IssueToken(adminEmail)
	require.NoError(t, err)

	_, err = newManager(t, secret).Verify(tok)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	m := newManager(t, secret)
	for _, tok := range []string{"", "abc", "a.b.c", "Bearer x"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, ErrDenied, tok)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	m := newManager(t, secret)
	claims := Claims{
		Email: adminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrDenied)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	m := newManager(t, secret)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: adminEmail}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "", false},
		{"BEARER abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Bearer a b", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ExtractBearer(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestHashPassword(t *testing.T) {
	h1, err := HashPassword("pw")
	require.NoError(t, err)
	h2, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "$2a$10$"))

	_, err = HashPassword("")
	assert.Error(t, err)
}
