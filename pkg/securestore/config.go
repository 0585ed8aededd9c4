package securestore

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
)

// Config configures a Store.
type Config struct {
	// Backend selects the storage backend: "badger", "sqlite" or "memory".
	// Only Open uses it.
	Backend string

	// DataDir holds the backend files. Required for badger and sqlite.
	DataDir string

	// Namespace partitions items and the keyring inside one backend.
	// Default: "default"
	Namespace string

	// Passphrase unlocks the keyring through Argon2id. Exactly one of
	// Passphrase and Key must be set.
	Passphrase string

	// Key is raw key material (at least 16 bytes) expanded with HKDF.
	Key []byte

	// Cipher names the AEAD used when a keyring is first created; "" or
	// "auto" picks the fastest for the CPU. Existing keyrings keep theirs.
	Cipher string

	// MaxValueBytes caps value size; 0 means no cap.
	MaxValueBytes int

	// KDF holds the Argon2id cost for new keyrings. Zero fields take defaults.
	KDF adaptive.KDFParams

	// Badger tunes the badger backend.
	Badger storage.BadgerConfig
}

// DefaultConfig returns a Config for the badger backend in dataDir with the
// default value cap. The caller supplies the secret.
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend:       storage.KindBadger,
		DataDir:       dataDir,
		Namespace:     DefaultNamespace,
		MaxValueBytes: DefaultMaxValueBytes,
		KDF:           adaptive.DefaultKDFParams(),
		Badger:        storage.DefaultBadgerConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Backend == "" {
		c.Backend = storage.KindBadger
	}
	d := adaptive.DefaultKDFParams()
	if c.KDF.Time == 0 {
		c.KDF.Time = d.Time
	}
	if c.KDF.Memory == 0 {
		c.KDF.Memory = d.Memory
	}
	if c.KDF.Threads == 0 {
		c.KDF.Threads = d.Threads
	}
	return c
}

func (c Config) verify(needBackend bool) error {
	if err := ValidateNamespace(c.Namespace); err != nil {
		return err
	}
	switch {
	case c.Passphrase == "" && len(c.Key) == 0:
		return ErrInvalidConfig.WithDetails("a passphrase or key is required")
	case c.Passphrase != "" && len(c.Key) > 0:
		return ErrInvalidConfig.WithDetails("passphrase and key are mutually exclusive")
	case c.Passphrase != "" && len(c.Passphrase) < adaptive.MinPassphraseLength:
		return ErrInvalidConfig.WithDetails(fmt.Sprintf("passphrase must be at least %d characters", adaptive.MinPassphraseLength))
	case len(c.Key) > 0 && len(c.Key) < adaptive.MinKeyMaterial:
		return ErrInvalidConfig.WithDetails(fmt.Sprintf("key must be at least %d bytes", adaptive.MinKeyMaterial))
	}
	if c.MaxValueBytes < 0 {
		return ErrInvalidConfig.WithDetails("max_value_bytes must not be negative")
	}
	if _, err := adaptive.ParseCipherType(c.Cipher); err != nil {
		return ErrInvalidConfig.WithCause(err).WithDetails(err.Error())
	}
	if !needBackend {
		return nil
	}
	switch c.Backend {
	case storage.KindBadger, storage.KindSQLite:
		if c.DataDir == "" {
			return ErrInvalidConfig.WithDetails(c.Backend + " backend requires a data directory")
		}
	case storage.KindMemory:
	default:
		return ErrInvalidConfig.WithDetails(fmt.Sprintf("unknown backend %q", c.Backend))
	}
	return nil
}

// Option configures ambient concerns of a Store.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithLogger sets the logger. Values and secrets are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the store's metrics (and badger's) with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
