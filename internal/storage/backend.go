package storage

import (
	"context"
	"errors"
	"io"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("storage backend closed")
)

// Backend is a byte-oriented key-value store.
//
// Implementations must be safe for concurrent use. Delete of an absent key
// returns nil.
type Backend interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair, replacing any previous value.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix in key order.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the backend. Later calls fail with ErrClosed.
	Close() error
}

// Getter reads single keys. Every Backend is a Getter.
type Getter interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
}

// VerifyFunc inspects staged snapshot contents before they replace the live
// data. A non-nil error aborts the load and leaves the live data untouched.
type VerifyFunc func(ctx context.Context, staged Getter) error

// Snapshotter is implemented by backends that can export and import their
// whole contents.
type Snapshotter interface {
	// SaveSnapshot returns a reader over a point-in-time copy of the data.
	SaveSnapshot(ctx context.Context) (io.ReadCloser, error)

	// LoadSnapshot replaces all data with the snapshot read from r. A non-nil
	// verify runs against the staged snapshot first; its error is returned
	// as is and the live data is never touched. A load that fails after
	// that rolls back to the prior data.
	LoadSnapshot(ctx context.Context, r io.Reader, verify VerifyFunc) error
}

// Stats contains storage backend statistics.
type Stats struct {
	// Kind is the backend name ("badger", "sqlite", "memory").
	Kind string `json:"kind" yaml:"kind"`

	// TotalKeys is the number of keys, or 0 when the backend cannot count cheaply.
	TotalKeys uint64 `json:"total_keys" yaml:"total_keys"`

	// TotalSize is the total disk (or memory) usage in bytes.
	TotalSize uint64 `json:"total_size" yaml:"total_size"`

	// LSMSize is the LSM tree size (Badger only).
	LSMSize uint64 `json:"lsm_size,omitempty" yaml:"lsm_size,omitempty"`

	// ValueLogSize is the value log size (Badger only).
	ValueLogSize uint64 `json:"value_log_size,omitempty" yaml:"value_log_size,omitempty"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time,omitempty" yaml:"last_gc_time,omitempty"`
}

// Backend kinds.
const (
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval string `koanf:"gc_interval" yaml:"gc_interval" json:"gc_interval"`

	// GCThreshold is the discard ratio passed to RunValueLogGC (0.0-1.0).
	// Default: 0.5
	GCThreshold float64 `koanf:"gc_threshold" yaml:"gc_threshold" json:"gc_threshold"`

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64 `koanf:"cache_size" yaml:"cache_size" json:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64 `koanf:"value_log_file_size" yaml:"value_log_file_size" json:"value_log_file_size"`

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int `koanf:"num_memtables" yaml:"num_memtables" json:"num_memtables"`

	// SyncWrites fsyncs after every write.
	// Default: true
	SyncWrites bool `koanf:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
}

// DefaultBadgerConfig returns the default Badger configuration, sized for a
// small device-local store.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
