package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Store struct {
		Backend       string `koanf:"backend"`
		DataDir       string `koanf:"data_dir"`
		MaxValueBytes int    `koanf:"max_value_bytes"`
	} `koanf:"store"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
	if len(l.Sources()) != 0 {
		t.Errorf("new loader sources = %v", l.Sources())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, "store:\n  backend: sqlite\n  data_dir: /tmp/ss\n")
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.String("store.data_dir"); got != "/tmp/ss" {
		t.Errorf("store.data_dir = %q, want /tmp/ss", got)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	if err := NewLoader().LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"SECURESTORE_STORE__DATA_DIR", "store.data_dir"},
		{"SECURESTORE_STORE__MAX_VALUE_BYTES", "store.max_value_bytes"},
		{"SECURESTORE_STORE__BADGER__GC_INTERVAL", "store.badger.gc_interval"},
		{"SECURESTORE_LOG__LEVEL", "log.level"},
	}
	for _, tt := range tests {
		if got := EnvKey(DefaultEnvPrefix, tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("SECURESTORE_STORE__DATA_DIR", "/var/lib/ss")
	t.Setenv("SECURESTORE_LOG__LEVEL", "debug")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.String("store.data_dir"); got != "/var/lib/ss" {
		t.Errorf("store.data_dir = %q", got)
	}
	if got := l.String("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_STORE__BACKEND", "memory")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if got := l.String("store.backend"); got != "memory" {
		t.Errorf("store.backend = %q, want memory", got)
	}
}

func TestLoader_LoadFlags(t *testing.T) {
	l := NewLoader()
	err := l.LoadFlags(map[string]any{
		"store.backend":         "memory",
		"store.max_value_bytes": 10,
		"log.level":             nil,
	})
	if err != nil {
		t.Fatalf("LoadFlags() error = %v", err)
	}
	if got := l.String("store.backend"); got != "memory" {
		t.Errorf("store.backend = %q", got)
	}
	if got := l.String("store.max_value_bytes"); got != "10" {
		t.Errorf("store.max_value_bytes = %q", got)
	}
	if l.String("log.level") != "" {
		t.Error("nil flag value was loaded")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeFile(t, "store:\n  backend: badger\n  data_dir: /from/file\n  max_value_bytes: 100\nlog:\n  level: info\n")
	t.Setenv("SECURESTORE_STORE__DATA_DIR", "/from/env")
	t.Setenv("SECURESTORE_STORE__BACKEND", "sqlite")

	var cfg testConfig
	cfg.Log.Level = "warn" // default, overridden by file

	l := NewLoader(
		WithConfigFile(path),
		WithFlags(map[string]any{"store.backend": "memory"}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Backend != "memory" {
		t.Errorf("backend = %q, want flag value memory", cfg.Store.Backend)
	}
	if cfg.Store.DataDir != "/from/env" {
		t.Errorf("data_dir = %q, want env value", cfg.Store.DataDir)
	}
	if cfg.Store.MaxValueBytes != 100 {
		t.Errorf("max_value_bytes = %d, want file value 100", cfg.Store.MaxValueBytes)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want file value info", cfg.Log.Level)
	}
	want := []string{"file:" + path, SourceEnv, SourceFlags}
	if got := l.Sources(); len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("Sources() = %v, want %v", got, want)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Store.Backend = "badger"
	cfg.Store.MaxValueBytes = 2048

	if err := NewLoader(WithEnvPrefix("UNUSED_PREFIX_")).Load(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "badger" || cfg.Store.MaxValueBytes != 2048 {
		t.Errorf("defaults lost: %+v", cfg.Store)
	}
}

func TestLoader_LoadFlags_EmptyIsNotASource(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFlags(map[string]any{"store.backend": nil}); err != nil {
		t.Fatal(err)
	}
	if len(l.Sources()) != 0 {
		t.Errorf("Sources() = %v, want none", l.Sources())
	}
}

func TestFindFile(t *testing.T) {
	existing := writeFile(t, "log:\n  level: info\n")
	dir := t.TempDir()

	got, ok := FindFile("", filepath.Join(dir, "missing.yaml"), dir, existing)
	if !ok || got != existing {
		t.Errorf("FindFile() = (%q, %v), want (%q, true)", got, ok, existing)
	}
	if _, ok := FindFile(filepath.Join(dir, "missing.yaml")); ok {
		t.Error("FindFile() found a missing file")
	}
}

func TestMapProvider(t *testing.T) {
	if _, err := (mapProvider{}).ReadBytes(); err == nil {
		t.Error("ReadBytes() succeeded")
	}
	m, err := mapProvider{"a": 1}.Read()
	if err != nil || m["a"] != 1 {
		t.Errorf("Read() = (%v, %v)", m, err)
	}
}
