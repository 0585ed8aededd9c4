package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/yndnr/persist-securestore/internal/infra/confloader"
	"github.com/yndnr/persist-securestore/internal/storage"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Store.Backend != storage.KindBadger {
		t.Errorf("Store.Backend = %q, want badger", cfg.Store.Backend)
	}
	if cfg.Store.MaxValueBytes != 2048 {
		t.Errorf("Store.MaxValueBytes = %d, want 2048", cfg.Store.MaxValueBytes)
	}
	if cfg.Store.Namespace != "default" {
		t.Errorf("Store.Namespace = %q, want default", cfg.Store.Namespace)
	}
	if cfg.Adapter.ReplaceCharacter != "_" {
		t.Errorf("Adapter.ReplaceCharacter = %q, want _", cfg.Adapter.ReplaceCharacter)
	}
	if cfg.Store.DataDir == "" {
		t.Error("Store.DataDir is empty")
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestDefaultDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	if got := DefaultDataDir(); got != filepath.Join("/xdg", "securestore") {
		t.Errorf("DefaultDataDir() = %q", got)
	}
}

func TestDefaultConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg-config")
	paths := DefaultConfigPaths()
	if len(paths) == 0 || paths[0] != ConfigFileName {
		t.Fatalf("DefaultConfigPaths() = %v, want working-directory file first", paths)
	}
	if runtime.GOOS == "linux" {
		want := filepath.Join("/xdg-config", "securestore", ConfigFileName)
		if len(paths) != 2 || paths[1] != want {
			t.Errorf("DefaultConfigPaths() = %v, want %q second", paths, want)
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory without dir", func(c *Config) { c.Store.Backend = "memory"; c.Store.DataDir = "" }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"sqlite without dir", func(c *Config) { c.Store.Backend = "sqlite"; c.Store.DataDir = "" }, "store.data_dir"},
		{"bad namespace", func(c *Config) { c.Store.Namespace = "a b" }, "store.namespace"},
		{"negative cap", func(c *Config) { c.Store.MaxValueBytes = -5 }, "max_value_bytes"},
		{"bad gc interval", func(c *Config) { c.Store.Badger.GCInterval = "soon" }, "gc_interval"},
		{"bad gc threshold", func(c *Config) { c.Store.Badger.GCThreshold = 1.5 }, "gc_threshold"},
		{"both secrets", func(c *Config) { c.Security.Passphrase = "p"; c.Security.KeyFile = "/k" }, "mutually exclusive"},
		{"bad cipher", func(c *Config) { c.Security.Cipher = "des" }, "security.cipher"},
		{"illegal replace character", func(c *Config) { c.Adapter.ReplaceCharacter = ":" }, "replace_character"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Security.Passphrase = "correct horse battery"

	s := Sanitize(cfg)
	if s.Security.Passphrase == cfg.Security.Passphrase {
		t.Error("passphrase not masked")
	}
	if !strings.HasPrefix(s.Security.Passphrase, "co") || !strings.HasSuffix(s.Security.Passphrase, "ry") {
		t.Errorf("masked passphrase = %q", s.Security.Passphrase)
	}
	if cfg.Security.Passphrase != "correct horse battery" {
		t.Error("Sanitize modified the original")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"short":      "****",
		"12345678":   "****",
		"1234567890": "12******90",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStoreConfig_KeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.key")
	if err := os.WriteFile(path, []byte("0123456789abcdef0123456789abcdef\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Security.KeyFile = path
	sc, err := cfg.StoreConfig()
	if err != nil {
		t.Fatalf("StoreConfig() error = %v", err)
	}
	if string(sc.Key) != "0123456789abcdef0123456789abcdef" {
		t.Errorf("Key = %q, want trailing newline trimmed", sc.Key)
	}
	if sc.KDF.Memory != cfg.Security.KDF.MemoryKiB || sc.Badger != cfg.Store.Badger {
		t.Errorf("StoreConfig() did not carry tuning through: %+v", sc)
	}

	cfg.Security.KeyFile = filepath.Join(t.TempDir(), "missing")
	if _, err := cfg.StoreConfig(); err == nil {
		t.Error("expected error for missing key file")
	}
}

func TestLoad_EnvOverDefaults(t *testing.T) {
	t.Setenv("SECURESTORE_STORE__BACKEND", "sqlite")
	t.Setenv("SECURESTORE_STORE__MAX_VALUE_BYTES", "4096")
	t.Setenv("SECURESTORE_ADAPTER__REPLACE_CHARACTER", "-")

	cfg := Default()
	if err := confloader.NewLoader().Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.MaxValueBytes != 4096 || cfg.Adapter.ReplaceCharacter != "-" {
		t.Errorf("env not applied: %+v %+v", cfg.Store, cfg.Adapter)
	}
	if cfg.Store.Namespace != "default" {
		t.Errorf("default namespace lost: %q", cfg.Store.Namespace)
	}
}
