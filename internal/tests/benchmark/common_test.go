package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

// Backends lists the backends every store benchmark runs against.
var Backends = []string{storage.KindMemory, storage.KindSQLite, storage.KindBadger}

// ValueSizes are the value sizes in bytes, bounded by the default cap.
var ValueSizes = []int{64, 256, 1024, 2048}

// fastKDF keeps keyring creation out of the measurements.
var fastKDF = adaptive.KDFParams{Time: 1, Memory: 1024, Threads: 1}

// newItemKey returns a unique, legal item key.
func newItemKey() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, _ := ulid.New(ulid.Timestamp(time.Now()), entropy)
	return "bench." + strings.ToLower(id.String())
}

// newValue returns a printable value of n bytes.
func newValue(n int) string {
	return strings.Repeat("x", n)
}

// openStore opens a store on backend in a temporary directory.
func openStore(b *testing.B, backend string) *securestore.Store {
	b.Helper()
	cfg := securestore.DefaultConfig(b.TempDir())
	cfg.Backend = backend
	cfg.Passphrase = "benchmark passphrase"
	cfg.KDF = fastKDF
	cfg.Badger.SyncWrites = false

	s, err := securestore.Open(context.Background(), cfg)
	if err != nil {
		b.Fatalf("Open(%s) error = %v", backend, err)
	}
	b.Cleanup(func() { _ = s.Close() })
	return s
}

// prefill stores count items and returns their keys.
func prefill(b *testing.B, s *securestore.Store, count, size int) []string {
	b.Helper()
	ctx := context.Background()
	value := newValue(size)
	keys := make([]string, count)
	for i := range keys {
		keys[i] = newItemKey()
		if err := s.SetItem(ctx, keys[i], value); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
	return keys
}

func sizeLabel(size int) string {
	if size >= 1024 {
		return fmt.Sprintf("%dKB", size/1024)
	}
	return fmt.Sprintf("%dB", size)
}
