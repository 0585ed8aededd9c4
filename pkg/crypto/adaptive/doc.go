// Package adaptive provides the authenticated ciphers and key derivation
// used to seal secure-store values at rest.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred when the CPU has AES instructions
//   - ChaCha20-Poly1305: fallback for other architectures
//   - XChaCha20-Poly1305: extended nonce variant, selectable explicitly
//
// Every ciphertext produced by a Cipher is nonce || sealed, so Decrypt needs
// only the ciphertext and the same additional data. Keys come either from a
// passphrase (Argon2id, see DeriveKey) or from raw key material expanded with
// HKDF (see DeriveSubkey).
//
// Usage:
//
//	key, _ := adaptive.DeriveKey(passphrase, salt, adaptive.DefaultKDFParams())
//	c, _ := adaptive.New(key)
//	sealed, _ := c.Encrypt(plaintext, aad)
//	plaintext, _ := c.Decrypt(sealed, aad)
package adaptive
