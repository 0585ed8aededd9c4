package storage_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/internal/storage/storagetest"
)

func newTestBadger(t *testing.T) *storage.BadgerBackend {
	t.Helper()
	cfg := storage.DefaultBadgerConfig()
	cfg.GCInterval = "1h" // keep auto GC out of the tests
	cfg.SyncWrites = false

	b, err := storage.NewBadgerBackend(t.TempDir(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("NewBadgerBackend() error = %v", err)
	}
	return b
}

func TestBadgerBackend(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return newTestBadger(t)
	})
}

func TestNewBadgerBackend_RequiresDir(t *testing.T) {
	if _, err := storage.NewBadgerBackend("", storage.DefaultBadgerConfig(), nil); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestBadgerBackend_Reopen(t *testing.T) {
	dir := t.TempDir()
	cfg := storage.DefaultBadgerConfig()
	ctx := context.Background()

	b, err := storage.NewBadgerBackend(dir, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, []byte("durable"), []byte("yes")); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = storage.NewBadgerBackend(dir, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	got, err := b.Get(ctx, []byte("durable"))
	if err != nil || string(got) != "yes" {
		t.Errorf("Get() after reopen = (%q, %v), want (%q, nil)", got, err, "yes")
	}
}

func TestBadgerBackend_GCMetrics(t *testing.T) {
	b := newTestBadger(t)
	defer b.Close()

	reg := prometheus.NewRegistry()
	b.RegisterMetrics(reg)

	if _, err := b.GC(context.Background()); err != nil {
		t.Fatalf("GC() error = %v", err)
	}

	count, err := testutil.GatherAndCount(reg, "securestore_badger_gc_runs_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("gc_runs_total series = %d, want 1", count)
	}

	stats, err := b.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.LastGCTime == 0 {
		t.Error("Stats().LastGCTime not updated by GC")
	}
}

func TestBadgerBackend_MetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newTestBadger(t).RegisterMetrics(reg)
	defer first.Close()
	second := newTestBadger(t).RegisterMetrics(reg)
	defer second.Close()

	ctx := context.Background()
	if _, err := first.GC(ctx); err != nil {
		t.Fatalf("GC() error = %v", err)
	}
	if _, err := second.GC(ctx); err != nil {
		t.Fatalf("GC() error = %v", err)
	}

	if err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP securestore_badger_gc_runs_total Total Badger value-log GC runs
# TYPE securestore_badger_gc_runs_total counter
securestore_badger_gc_runs_total 2
`), "securestore_badger_gc_runs_total"); err != nil {
		t.Error(err)
	}
}
