package securestore

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxKeyLength is the longest accepted key, in bytes.
	MaxKeyLength = 255

	// MaxNamespaceLength is the longest accepted namespace, in bytes.
	MaxNamespaceLength = 64

	// DefaultMaxValueBytes is the default value size cap.
	DefaultMaxValueBytes = 2048

	// DefaultNamespace is used when Config.Namespace is empty.
	DefaultNamespace = "default"
)

// IsKeyChar reports whether r may appear in a key: ASCII letters, digits,
// '.', '-' and '_'.
func IsKeyChar(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '.' || r == '-' || r == '_'
}

// ValidateKey checks key against the store's key rules.
func ValidateKey(key string) error {
	return validateName(ErrInvalidKey, "key", key, MaxKeyLength)
}

// ValidateNamespace checks a namespace; namespaces follow the key alphabet.
func ValidateNamespace(ns string) error {
	return validateName(ErrInvalidConfig, "namespace", ns, MaxNamespaceLength)
}

func validateName(sentinel *Error, what, s string, max int) error {
	if s == "" {
		return sentinel.WithDetails(what + " is empty")
	}
	if len(s) > max {
		return sentinel.WithDetails(fmt.Sprintf("%s is %d bytes, limit %d", what, len(s), max))
	}
	for i, r := range s {
		if !IsKeyChar(r) {
			return sentinel.WithDetails(fmt.Sprintf("%s has illegal character %q at offset %d", what, r, i))
		}
	}
	return nil
}

// ValidateValue checks that value is UTF-8 and, when maxBytes > 0, at most
// maxBytes long.
func ValidateValue(value string, maxBytes int) error {
	if !utf8.ValidString(value) {
		return ErrInvalidValue.WithDetails("value is not valid UTF-8")
	}
	if maxBytes > 0 && len(value) > maxBytes {
		return ErrValueTooLarge.WithDetails(fmt.Sprintf("%d bytes, limit %d", len(value), maxBytes))
	}
	return nil
}

func itemPrefix(ns string) []byte {
	return []byte("item/" + ns + "/")
}

func itemKey(ns, key string) []byte {
	return []byte("item/" + ns + "/" + key)
}

func keyringKey(ns string) []byte {
	return []byte("meta/" + ns + "/keyring")
}

// itemAAD binds a sealed value to its namespace and key.
func itemAAD(ns, key string) []byte {
	return []byte("securestore/v1/item/" + ns + "/" + key)
}

func keyringAAD(ns string) []byte {
	return []byte("securestore/v1/keyring/" + ns)
}
