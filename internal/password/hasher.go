// Package password hashes and verifies user passwords.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/qapath-server/internal/model"
)

// argon2id parameters. A verify takes low tens of milliseconds.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonSaltLen = 16
	argonKeyLen  = 32
)

// MinLength is the minimum accepted password length.
const MinLength = 8

var _ model.PasswordHasher = (*Hasher)(nil)

// Hasher produces argon2id digests and verifies both argon2id and legacy bcrypt digests.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewHasher creates a Hasher with production parameters.
func NewHasher() *Hasher {
	return &Hasher{time: argonTime, memory: argonMemory, threads: argonThreads}
}

// NewHasherWithParams creates a Hasher with custom argon2id cost parameters.
func NewHasherWithParams(time, memoryKiB uint32, threads uint8) *Hasher {
	return &Hasher{time: time, memory: memoryKiB, threads: threads}
}

// Hash returns a PHC-encoded argon2id digest with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("PASSWORD_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, argonKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.time,
		h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether digest was produced from plaintext.
// Malformed digests never match.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}

	p, err := decodeArgon(digest)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

// NeedsUpgrade reports whether digest should be re-hashed with the current parameters.
func (h *Hasher) NeedsUpgrade(digest string) bool {
	p, err := decodeArgon(digest)
	if err != nil {
		return true
	}
	return p.time != h.time || p.memory != h.memory || p.threads != h.threads
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeArgon(digest string) (argonParams, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, fmt.Errorf("invalid argon2id digest format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, fmt.Errorf("failed to parse version: %w", err)
	}
	if version != argon2.Version {
		return argonParams{}, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return argonParams{}, fmt.Errorf("failed to parse params: %w", err)
	}
	if threads == 0 || threads > 255 || time == 0 || memory == 0 {
		return argonParams{}, fmt.Errorf("argon2 params out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, fmt.Errorf("failed to decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return argonParams{}, fmt.Errorf("invalid key length %d", len(key))
	}

	return argonParams{time: time, memory: memory, threads: uint8(threads), salt: salt, key: key}, nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// CheckStrength reports whether plaintext satisfies the password policy.
// On failure it returns the first violated rule.
func CheckStrength(plaintext string) (bool, string) {
	if len([]rune(plaintext)) < MinLength {
		return false, fmt.Sprintf("password must be at least %d characters long", MinLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		return false, "password must contain at least one letter"
	}
	if !hasDigit {
		return false, "password must contain at least one digit"
	}

	return true, ""
}
