package adaptive

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// SaltSize is the salt length used for key derivation.
	SaltSize = 16

	// MinPassphraseLength is the shortest passphrase DeriveKey accepts.
	MinPassphraseLength = 8

	// MinKeyMaterial is the shortest raw key DeriveSubkey accepts.
	MinKeyMaterial = 16
)

var (
	ErrPassphraseTooShort = errors.New("adaptive: passphrase too short (minimum 8 characters)")
	ErrKeyMaterialShort   = errors.New("adaptive: key material too short (minimum 16 bytes)")
	ErrInvalidSalt        = errors.New("adaptive: salt must be 16 bytes")
)

// KDFParams are the Argon2id cost parameters. They are persisted next to the
// salt so a store opened later derives the same key.
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory_kib"`
	Threads uint8  `json:"threads"`
}

// DefaultKDFParams returns the interactive-use Argon2id parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("adaptive: new salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize key from passphrase with Argon2id.
func DeriveKey(passphrase, salt []byte, p KDFParams) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooShort
	}
	if len(salt) != SaltSize {
		return nil, ErrInvalidSalt
	}
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("adaptive: invalid kdf params %+v", p)
	}
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, KeySize), nil
}

// DeriveSubkey expands raw key material into a KeySize key bound to info.
func DeriveSubkey(master, salt []byte, info string) ([]byte, error) {
	if len(master) < MinKeyMaterial {
		return nil, ErrKeyMaterialShort
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("adaptive: derive subkey: %w", err)
	}
	return key, nil
}

// Wipe zeroes key material in place.
func Wipe(b []byte) {
	clear(b)
}
