package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/internal/telemetry/logger"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

// Verify validates the configuration. It does not require a secret; the
// store checks that when it opens.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyStore(&cfg.Store),
		verifySecurity(&cfg.Security),
		verifyAdapter(&cfg.Adapter),
		verifyLog(&cfg.Log),
	)
}

func verifyStore(cfg *StoreSection) error {
	switch cfg.Backend {
	case storage.KindBadger, storage.KindSQLite:
		if cfg.DataDir == "" {
			return fmt.Errorf("store.data_dir is required for the %s backend", cfg.Backend)
		}
	case storage.KindMemory:
	default:
		return fmt.Errorf("store.backend must be badger, sqlite or memory, got %q", cfg.Backend)
	}

	if err := securestore.ValidateNamespace(cfg.Namespace); err != nil {
		return fmt.Errorf("store.namespace: %w", err)
	}
	if cfg.MaxValueBytes < 0 {
		return errors.New("store.max_value_bytes must not be negative")
	}
	if cfg.Backend == storage.KindBadger {
		d, err := time.ParseDuration(cfg.Badger.GCInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("store.badger.gc_interval %q is not a positive duration", cfg.Badger.GCInterval)
		}
		if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
			return errors.New("store.badger.gc_threshold must be between 0 and 1")
		}
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.Passphrase != "" && cfg.KeyFile != "" {
		return errors.New("security.passphrase and security.key_file are mutually exclusive")
	}
	if _, err := adaptive.ParseCipherType(cfg.Cipher); err != nil {
		return fmt.Errorf("security.cipher: %w", err)
	}
	return nil
}

func verifyAdapter(cfg *AdapterSection) error {
	for _, r := range cfg.ReplaceCharacter {
		if !securestore.IsKeyChar(r) {
			return fmt.Errorf("adapter.replace_character %q would produce illegal keys", cfg.ReplaceCharacter)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
	return nil
}
