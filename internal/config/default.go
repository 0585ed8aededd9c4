package config

import (
	"os"
	"path/filepath"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
	"github.com/yndnr/persist-securestore/pkg/persist"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

// Default configuration values.
const (
	DefaultBackend   = storage.KindBadger
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultCipher    = "auto"
)

// Default returns the default configuration.
func Default() *Config {
	kdf := adaptive.DefaultKDFParams()
	return &Config{
		Store: StoreSection{
			Backend:       DefaultBackend,
			DataDir:       DefaultDataDir(),
			Namespace:     securestore.DefaultNamespace,
			MaxValueBytes: securestore.DefaultMaxValueBytes,
			Badger:        storage.DefaultBadgerConfig(),
		},
		Security: SecuritySection{
			Cipher: DefaultCipher,
			KDF: KDFSection{
				Time:      kdf.Time,
				MemoryKiB: kdf.Memory,
				Threads:   kdf.Threads,
			},
		},
		Adapter: AdapterSection{
			ReplaceCharacter: persist.DefaultReplaceCharacter,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ConfigFileName is the file searched for when no --config is given.
const ConfigFileName = "securestore.yaml"

// DefaultConfigPaths lists where a configuration file is looked for, in
// order: the working directory, then $XDG_CONFIG_HOME/securestore (or
// ~/.config/securestore).
func DefaultConfigPaths() []string {
	paths := []string{ConfigFileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "securestore", ConfigFileName))
	}
	return paths
}

// DefaultDataDir returns $XDG_DATA_HOME/securestore, falling back to
// ~/.local/share/securestore and then ./securestore-data.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "securestore")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "securestore")
	}
	return "securestore-data"
}
