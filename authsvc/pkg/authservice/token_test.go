package authservice

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newTestTokenizer(now time.Time) *tokenizer {
	t := NewTokenizer(testSecret, time.Hour).(*tokenizer)
	t.now = func() time.Time { return now }
	return t
}

func TestTokenizerRoundTrip(t *testing.T) {
	tk := NewTokenizer(testSecret, time.Hour)

	token, err := tk.Issue("alice")
	require.NoError(t, err)

	username, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenizerClaims(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tk := newTestTokenizer(now)

	token, err := tk.Issue("alice")
	require.NoError(t, err)

	var claims jwt.RegisteredClaims
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenizerUniqueTokens(t *testing.T) {
	tk := newTestTokenizer(time.Unix(1700000000, 0))

	a, err := tk.Issue("alice")
	require.NoError(t, err)
	b, err := tk.Issue("alice")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenizerExpired(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	tk := newTestTokenizer(issued)

	token, err := tk.Issue("alice")
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(time.Hour + time.Second) }
	_, err = tk.Verify(token)
	assert.Equal(t, authsvc.ErrInvalidToken, err)
}

func TestTokenizerRejects(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tk := newTestTokenizer(now)

	valid, err := tk.Issue("alice")
	require.NoError(t, err)
	forged, err := tk.Issue("mallory")
	require.NoError(t, err)

	// mallory's claims under alice's signature.
	v, f := strings.Split(valid, "."), strings.Split(forged, ".")
	tampered := strings.Join([]string{v[0], f[1], v[2]}, ".")

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	fresh := jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := map[string]string{
		"empty":       "",
		"garbage":     "not-a-token",
		"tampered":    tampered,
		"other key":   sign(jwt.SigningMethodHS256, []byte("other-secret"), fresh),
		"other alg":   sign(jwt.SigningMethodHS512, testSecret, fresh),
		"alg none":    sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, fresh),
		"no subject":  sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{IssuedAt: fresh.IssuedAt, ExpiresAt: fresh.ExpiresAt}),
		"no expiry":   sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "alice", IssuedAt: fresh.IssuedAt}),
		"future iat":  sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "alice", IssuedAt: jwt.NewNumericDate(now.Add(time.Minute)), ExpiresAt: fresh.ExpiresAt}),
		"past expiry": sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "alice", IssuedAt: jwt.NewNumericDate(now.Add(-2 * time.Hour)), ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))}),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			username, err := tk.Verify(token)
			assert.Equal(t, authsvc.ErrInvalidToken, err)
			assert.Empty(t, username)
		})
	}
}
