package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Cost parameters for new hashes. Stored hashes carry their own.
const (
	hashMemory      = 64 * 1024
	hashIterations  = 3
	hashParallelism = 4
	hashSaltLength  = 16
	hashKeyLength   = 32

	maxPasswordLength = 1024
)

// ErrMalformedHash is returned by CheckHash for strings that are not
// argon2id PHC hashes.
var ErrMalformedHash = errors.New("malformed argon2id hash")

// phcHash is a decoded $argon2id$v=..$m=..,t=..,p=..$salt$key string.
type phcHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.iterations, h.parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

// derive computes the key for password with h's salt and cost.
func (h phcHash) derive(password string) []byte {
	//nolint:gosec // key length is bounded by what we encoded
	return argon2.IDKey([]byte(password), h.salt, h.iterations, h.memory, h.parallelism, uint32(len(h.key)))
}

// HashPassword returns the argon2id hash of the host password in PHC form,
// the format HOST_PASSWORD_HASH expects.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	h := phcHash{
		memory:      hashMemory,
		iterations:  hashIterations,
		parallelism: hashParallelism,
		salt:        make([]byte, hashSaltLength),
		key:         make([]byte, hashKeyLength),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	h.key = h.derive(password)

	return h.String(), nil
}

// VerifyPassword reports whether password matches encoded. A malformed hash
// never matches.
func VerifyPassword(encoded, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	h, err := parseHash(encoded)
	if err != nil {
		//nolint:nilerr // a malformed hash is reported as a mismatch
		return false, nil
	}

	return subtle.ConstantTimeCompare(h.key, h.derive(password)) == 1, nil
}

// CheckHash reports whether encoded can be used by VerifyPassword.
func CheckHash(encoded string) error {
	if _, err := parseHash(encoded); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
	return nil
}

func parseHash(encoded string) (phcHash, error) {
	var h phcHash

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return h, errors.New("expected six $-separated fields")
	}
	if parts[1] != "argon2id" {
		return h, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return h, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return h, fmt.Errorf("incompatible version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return h, fmt.Errorf("invalid parameters: %w", err)
	}
	if h.iterations == 0 || h.parallelism == 0 {
		return h, errors.New("iterations and parallelism must be positive")
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(h.key) == 0 {
		return h, errors.New("empty key")
	}
	return h, nil
}
