package authservice

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/twinj/uuid"
)

// Tokenizer issues and verifies signed access tokens carrying a username.
type Tokenizer interface {
	Issue(username string) (string, error)
	Verify(token string) (username string, err error)
}

type tokenizer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenizer signs with HS256. The secret is fixed for the lifetime of the
// returned Tokenizer.
func NewTokenizer(secret []byte, expiry time.Duration) Tokenizer {
	return &tokenizer{
		secret: append([]byte(nil), secret...),
		expiry: expiry,
		now:    time.Now,
	}
}

var uuidV4 = uuid.NewV4

func (t *tokenizer) Issue(username string) (string, error) {
	now := t.now()

	claims := jwt.RegisteredClaims{
		ID:        uuidV4().String(),
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns authsvc.ErrInvalidToken for every failure: bad signature,
// malformed input, unexpected algorithm, missing or elapsed expiry.
func (t *tokenizer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", authsvc.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", authsvc.ErrInvalidToken
	}

	return claims.Subject, nil
}
