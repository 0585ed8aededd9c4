// Package securestore is an encrypted, on-device key-value store for short
// string values.
//
// Keys are limited to [A-Za-z0-9._-] and 255 bytes; values must be UTF-8 and
// are capped at MaxValueBytes (2048 by default). Every value is sealed with
// an AEAD cipher whose additional data binds it to its namespace and key, so
// a ciphertext copied under another key fails to open.
//
// The cipher key is derived from a passphrase (Argon2id) or raw key material
// (HKDF). The derivation parameters and a sealed check value are kept in a
// per-namespace keyring record, which lets Open reject a wrong secret with
// ErrWrongSecret before any item is read.
//
// Usage:
//
//	cfg := securestore.DefaultConfig("/var/lib/app/secure")
//	cfg.Passphrase = os.Getenv("APP_PASSPHRASE")
//	s, err := securestore.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.SetItem(ctx, "session", `{"token":"..."}`)
//	v, ok, err := s.GetItem(ctx, "session")
package securestore
