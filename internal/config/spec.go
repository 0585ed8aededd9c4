package config

import "github.com/yndnr/persist-securestore/internal/storage"

// Config is the root configuration for securestore-cli.
type Config struct {
	Store    StoreSection    `koanf:"store" yaml:"store" json:"store"`
	Security SecuritySection `koanf:"security" yaml:"security" json:"security"`
	Adapter  AdapterSection  `koanf:"adapter" yaml:"adapter" json:"adapter"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`
}

// StoreSection selects and tunes the storage backend.
type StoreSection struct {
	// Backend is "badger", "sqlite" or "memory".
	Backend string `koanf:"backend" yaml:"backend" json:"backend"`

	DataDir string `koanf:"data_dir" yaml:"data_dir" json:"data_dir"`

	Namespace string `koanf:"namespace" yaml:"namespace" json:"namespace"`

	// MaxValueBytes caps value size; 0 disables the cap.
	MaxValueBytes int `koanf:"max_value_bytes" yaml:"max_value_bytes" json:"max_value_bytes"`

	Badger storage.BadgerConfig `koanf:"badger" yaml:"badger" json:"badger"`
}

// SecuritySection configures how the keyring is unlocked.
type SecuritySection struct {
	// Passphrase unlocks the keyring with Argon2id.
	Passphrase string `koanf:"passphrase" yaml:"passphrase" json:"passphrase"`

	// KeyFile names a file of raw key material used instead of a passphrase.
	KeyFile string `koanf:"key_file" yaml:"key_file" json:"key_file"`

	// Cipher is "auto", "aes-gcm", "chacha20-poly1305" or "xchacha20-poly1305".
	Cipher string `koanf:"cipher" yaml:"cipher" json:"cipher"`

	KDF KDFSection `koanf:"kdf" yaml:"kdf" json:"kdf"`
}

// KDFSection holds Argon2id cost parameters for new keyrings.
type KDFSection struct {
	Time      uint32 `koanf:"time" yaml:"time" json:"time"`
	MemoryKiB uint32 `koanf:"memory_kib" yaml:"memory_kib" json:"memory_kib"`
	Threads   uint8  `koanf:"threads" yaml:"threads" json:"threads"`
}

// AdapterSection configures key replacement.
type AdapterSection struct {
	ReplaceCharacter string `koanf:"replace_character" yaml:"replace_character" json:"replace_character"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}
