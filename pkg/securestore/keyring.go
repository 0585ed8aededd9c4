package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
)

const (
	keyringVersion = 1

	kdfArgon2id = "argon2id"
	kdfHKDF     = "hkdf-sha256"

	keyringCheck = "securestore keyring check"
)

// keyringRecord is the JSON document stored at meta/<namespace>/keyring.
// It never contains key material, only what is needed to re-derive it.
type keyringRecord struct {
	Version   int                 `json:"version"`
	KDF       string              `json:"kdf"`
	Params    *adaptive.KDFParams `json:"params,omitempty"`
	Salt      []byte              `json:"salt"`
	Cipher    adaptive.CipherType `json:"cipher"`
	Check     []byte              `json:"check"`
	CreatedAt time.Time           `json:"created_at"`
}

// secret is the caller-provided unlock material.
type secret struct {
	passphrase []byte
	rawKey     []byte
}

func (s secret) kdf() string {
	if len(s.rawKey) > 0 {
		return kdfHKDF
	}
	return kdfArgon2id
}

func (s secret) derive(ns string, rec *keyringRecord) ([]byte, error) {
	switch rec.KDF {
	case kdfArgon2id:
		if rec.Params == nil {
			return nil, ErrCorrupted.WithDetails("keyring has no kdf parameters")
		}
		return adaptive.DeriveKey(s.passphrase, rec.Salt, *rec.Params)
	case kdfHKDF:
		return adaptive.DeriveSubkey(s.rawKey, rec.Salt, "securestore/"+ns)
	default:
		return nil, ErrCorrupted.WithDetails(fmt.Sprintf("unknown kdf %q", rec.KDF))
	}
}

// unlockKeyring opens the namespace keyring, creating it on first use, and
// returns the cipher that seals the namespace's items.
func unlockKeyring(ctx context.Context, b storage.Backend, ns string, sec secret, cipherType adaptive.CipherType, params adaptive.KDFParams) (adaptive.Cipher, bool, error) {
	c, err := openKeyring(ctx, b, ns, sec)
	if errors.Is(err, storage.ErrKeyNotFound) {
		c, err := createKeyring(ctx, b, ns, sec, cipherType, params)
		return c, true, err
	}
	return c, false, err
}

// openKeyring unlocks an existing keyring read through g. It returns
// storage.ErrKeyNotFound when the namespace has none and never writes.
func openKeyring(ctx context.Context, g storage.Getter, ns string, sec secret) (adaptive.Cipher, error) {
	raw, err := g.Get(ctx, keyringKey(ns))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, ErrStorage.WithDetails("read keyring").WithCause(err)
	}

	var rec keyringRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, ErrCorrupted.WithDetails("keyring is not valid JSON").WithCause(err)
	}
	if rec.Version != keyringVersion {
		return nil, ErrCorrupted.WithDetails(fmt.Sprintf("unsupported keyring version %d", rec.Version))
	}
	if rec.KDF != sec.kdf() {
		return nil, ErrWrongSecret.WithDetails(fmt.Sprintf("keyring expects %s secret", rec.KDF))
	}

	key, err := sec.derive(ns, &rec)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, ErrInvalidConfig.WithDetails("derive key").WithCause(err)
	}
	defer adaptive.Wipe(key)

	c, err := adaptive.NewWithType(key, rec.Cipher)
	if err != nil {
		return nil, ErrCorrupted.WithDetails("keyring cipher").WithCause(err)
	}
	if _, err := c.Decrypt(rec.Check, keyringAAD(ns)); err != nil {
		return nil, ErrWrongSecret
	}
	return c, nil
}

func createKeyring(ctx context.Context, b storage.Backend, ns string, sec secret, cipherType adaptive.CipherType, params adaptive.KDFParams) (adaptive.Cipher, error) {
	salt, err := adaptive.NewSalt()
	if err != nil {
		return nil, err
	}
	rec := keyringRecord{
		Version:   keyringVersion,
		KDF:       sec.kdf(),
		Salt:      salt,
		Cipher:    cipherType,
		CreatedAt: time.Now().UTC(),
	}
	if rec.KDF == kdfArgon2id {
		rec.Params = &params
	}

	key, err := sec.derive(ns, &rec)
	if err != nil {
		return nil, ErrInvalidConfig.WithDetails("derive key").WithCause(err)
	}
	defer adaptive.Wipe(key)

	c, err := adaptive.NewWithType(key, cipherType)
	if err != nil {
		return nil, ErrInvalidConfig.WithDetails("cipher").WithCause(err)
	}
	rec.Check, err = c.Encrypt([]byte(keyringCheck), keyringAAD(ns))
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("marshal keyring: %w", err)
	}
	if err := b.Set(ctx, keyringKey(ns), raw); err != nil {
		return nil, ErrStorage.WithDetails("write keyring").WithCause(err)
	}
	return c, nil
}
