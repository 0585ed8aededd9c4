package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
	"github.com/yndnr/persist-securestore/pkg/persist"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

// StoreConfig converts the configuration into a securestore.Config, reading
// the key file when one is configured.
func (c *Config) StoreConfig() (securestore.Config, error) {
	sc := securestore.Config{
		Backend:       c.Store.Backend,
		DataDir:       c.Store.DataDir,
		Namespace:     c.Store.Namespace,
		Passphrase:    c.Security.Passphrase,
		Cipher:        c.Security.Cipher,
		MaxValueBytes: c.Store.MaxValueBytes,
		KDF: adaptive.KDFParams{
			Time:    c.Security.KDF.Time,
			Memory:  c.Security.KDF.MemoryKiB,
			Threads: c.Security.KDF.Threads,
		},
		Badger: c.Store.Badger,
	}

	if c.Security.KeyFile != "" {
		raw, err := os.ReadFile(c.Security.KeyFile)
		if err != nil {
			return sc, fmt.Errorf("read key file: %w", err)
		}
		sc.Key = []byte(strings.TrimRight(string(raw), "\r\n"))
	}
	return sc, nil
}

// AdapterOptions returns the adapter options for the configuration.
func (c *Config) AdapterOptions() *persist.Options {
	return &persist.Options{ReplaceCharacter: c.Adapter.ReplaceCharacter}
}
