package userservice

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	keyLength  = 32
)

// HashParams is the argon2id cost factor.
type HashParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultHashParams follows the second recommended option of RFC 9106.
func DefaultHashParams() HashParams {
	return HashParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

func (p HashParams) validate() error {
	if p.Time < 1 || p.Threads < 1 {
		return errors.New("argon2 time and threads must be at least 1")
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2 memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	}
	return nil
}

type Hasher interface {
	Hash(plaintext string) (digest string, salt []byte, err error)
	Verify(plaintext, digest string, salt []byte) bool
}

type hasher struct {
	params HashParams
}

func NewHasher(p HashParams) (Hasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &hasher{p}, nil
}

var randRead = rand.Read

func (h *hasher) Hash(plaintext string) (string, []byte, error) {
	salt := make([]byte, saltLength)
	if _, err := randRead(salt); err != nil {
		return "", nil, fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, keyLength)

	return encodeDigest(h.params, key), salt, nil
}

// Verify recomputes the key with the parameters recorded in the digest, so
// users hashed under an older cost factor keep verifying.
func (h *hasher) Verify(plaintext, digest string, salt []byte) bool {
	p, key, err := decodeDigest(digest)
	if err != nil {
		return false
	}

	other := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, other) == 1
}

func encodeDigest(p HashParams, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(key),
	)
}

var errMalformedDigest = errors.New("malformed password digest")

func decodeDigest(digest string) (HashParams, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return HashParams{}, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return HashParams{}, nil, errMalformedDigest
	}

	var p HashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return HashParams{}, nil, errMalformedDigest
	}
	if err := p.validate(); err != nil {
		return HashParams{}, nil, errMalformedDigest
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return HashParams{}, nil, errMalformedDigest
	}

	return p, key, nil
}
