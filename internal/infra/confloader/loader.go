package confloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "SECURESTORE_"

// sectionSeparator separates nesting levels in environment variable names.
const sectionSeparator = "__"

// Source names reported by Loader.Sources.
const (
	SourceEnv   = "env"
	SourceFlags = "flags"
)

// Loader merges configuration sources into a koanf instance and unmarshals
// the result over a defaults-filled struct.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	flags     map[string]any
	sources   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file to load. An empty path loads no file.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithFlags sets flag overrides keyed by dotted path ("store.backend").
func WithFlags(flags map[string]any) Option {
	return func(l *Loader) { l.flags = flags }
}

// NewLoader creates a loader. Nothing is read until Load.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New("."), envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads file, environment and flags in that order and unmarshals the
// result over target. Fields no source sets keep their value.
func (l *Loader) Load(target any) error {
	if err := l.LoadFile(l.filePath); err != nil {
		return err
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if err := l.LoadFlags(l.flags); err != nil {
		return err
	}
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	l.sources = append(l.sources, "file:"+path)
	return nil
}

// EnvKey maps an environment variable name to a configuration key.
func EnvKey(prefix, name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.ReplaceAll(name, sectionSeparator, ".")
}

// LoadEnv merges environment variables carrying the prefix.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return EnvKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if hasEnvPrefix(l.envPrefix) {
		l.sources = append(l.sources, SourceEnv)
	}
	return nil
}

func hasEnvPrefix(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}
	return false
}

// LoadFlags merges overrides keyed by dotted path. Nil values are skipped so
// unset flags do not clobber lower-priority sources.
func (l *Loader) LoadFlags(flags map[string]any) error {
	flat := make(map[string]any, len(flags))
	for k, v := range flags {
		if v != nil {
			flat[k] = v
		}
	}
	if len(flat) == 0 {
		return nil
	}
	if err := l.k.Load(mapProvider(maps.Unflatten(flat, ".")), nil); err != nil {
		return fmt.Errorf("load flags: %w", err)
	}
	l.sources = append(l.sources, SourceFlags)
	return nil
}

// String returns the merged value at a dotted key.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Sources lists the sources merged so far, lowest priority first.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// FindFile returns the first candidate path naming a regular file.
func FindFile(candidates ...string) (string, bool) {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
