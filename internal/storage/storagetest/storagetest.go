// Package storagetest provides a conformance suite for storage.Backend
// implementations.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/yndnr/persist-securestore/internal/storage"
)

// Factory opens a fresh, empty backend for one subtest.
type Factory func(t *testing.T) storage.Backend

// Run exercises the Backend contract against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		if err := b.Set(ctx, []byte("k1"), []byte("v1")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := b.Get(ctx, []byte("k1"))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "v1" {
			t.Errorf("Get() = %q, want %q", got, "v1")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		_ = b.Set(ctx, []byte("k"), []byte("old"))
		_ = b.Set(ctx, []byte("k"), []byte("new"))
		got, err := b.Get(ctx, []byte("k"))
		if err != nil || string(got) != "new" {
			t.Errorf("Get() = (%q, %v), want (%q, nil)", got, err, "new")
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		if _, err := b.Get(ctx, []byte("missing")); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		_ = b.Set(ctx, []byte("k"), []byte("v"))
		for i := 0; i < 2; i++ {
			if err := b.Delete(ctx, []byte("k")); err != nil {
				t.Fatalf("Delete() #%d error = %v", i+1, err)
			}
		}
		if _, err := b.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrKeyNotFound", err)
		}
		if err := b.Delete(ctx, []byte("never-set")); err != nil {
			t.Errorf("Delete(absent) error = %v", err)
		}
	})

	t.Run("Scan with prefix", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		for k, v := range map[string]string{
			"item/a/1": "x", "item/a/2": "y", "item/a/3": "z", "item/b/1": "w", "meta/a": "m",
		} {
			if err := b.Set(ctx, []byte(k), []byte(v)); err != nil {
				t.Fatal(err)
			}
		}

		var keys []string
		err := b.Scan(ctx, []byte("item/a/"), func(key, value []byte) bool {
			keys = append(keys, string(key))
			return true
		})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		want := []string{"item/a/1", "item/a/2", "item/a/3"}
		if fmt.Sprint(keys) != fmt.Sprint(want) {
			t.Errorf("Scan() keys = %v, want %v", keys, want)
		}

		count := 0
		_ = b.Scan(ctx, []byte("item/"), func(key, value []byte) bool {
			count++
			return count < 2
		})
		if count != 2 {
			t.Errorf("Scan() early stop visited %d, want 2", count)
		}
	})

	t.Run("Binary values", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		value := []byte{0x00, 0xff, 0x10, 0x00}
		_ = b.Set(ctx, []byte("bin"), value)
		got, err := b.Get(ctx, []byte("bin"))
		if err != nil || !bytes.Equal(got, value) {
			t.Errorf("Get() = (%x, %v), want %x", got, err, value)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		_ = b.Set(ctx, []byte("a"), []byte("1"))
		_ = b.Set(ctx, []byte("b"), []byte("2"))
		stats, err := b.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.Kind == "" {
			t.Error("Stats().Kind is empty")
		}
		if stats.TotalKeys != 2 {
			t.Errorf("Stats().TotalKeys = %d, want 2", stats.TotalKeys)
		}
	})

	t.Run("Concurrent writers", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := []byte(fmt.Sprintf("c/%02d", i))
				if err := b.Set(ctx, key, key); err != nil {
					t.Errorf("Set(%s) error = %v", key, err)
				}
			}(i)
		}
		wg.Wait()

		n := 0
		_ = b.Scan(ctx, []byte("c/"), func(key, value []byte) bool {
			n++
			return true
		})
		if n != 16 {
			t.Errorf("Scan() found %d keys, want 16", n)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		b := newBackend(t)
		if err := b.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, err := b.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrClosed) {
			t.Errorf("Get() after Close error = %v, want ErrClosed", err)
		}
		if err := b.Set(ctx, []byte("k"), []byte("v")); !errors.Is(err, storage.ErrClosed) {
			t.Errorf("Set() after Close error = %v, want ErrClosed", err)
		}
		if err := b.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})

	t.Run("Snapshot round trip", func(t *testing.T) {
		src := newBackend(t)
		defer src.Close()
		snap, ok := src.(storage.Snapshotter)
		if !ok {
			t.Skip("backend does not implement Snapshotter")
		}

		_ = src.Set(ctx, []byte("keep"), []byte("1"))
		rc, err := snap.SaveSnapshot(ctx)
		if err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}
		defer rc.Close()

		dst := newBackend(t)
		defer dst.Close()
		_ = dst.Set(ctx, []byte("stale"), []byte("x"))

		var sawKeep bool
		verify := func(ctx context.Context, staged storage.Getter) error {
			v, err := staged.Get(ctx, []byte("keep"))
			sawKeep = err == nil && string(v) == "1"
			return nil
		}
		if err := dst.(storage.Snapshotter).LoadSnapshot(ctx, rc, verify); err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}
		if got, err := dst.Get(ctx, []byte("keep")); err != nil || string(got) != "1" {
			t.Errorf("Get(keep) = (%q, %v), want (%q, nil)", got, err, "1")
		}
		if _, err := dst.Get(ctx, []byte("stale")); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get(stale) error = %v, want ErrKeyNotFound", err)
		}
		if !sawKeep {
			t.Error("verify did not see the staged snapshot contents")
		}
	})
	t.Run("Snapshot rejected by verify", func(t *testing.T) {
		src := newBackend(t)
		defer src.Close()
		snap, ok := src.(storage.Snapshotter)
		if !ok {
			t.Skip("backend does not implement Snapshotter")
		}

		_ = src.Set(ctx, []byte("incoming"), []byte("1"))
		rc, err := snap.SaveSnapshot(ctx)
		if err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}
		defer rc.Close()

		dst := newBackend(t)
		defer dst.Close()
		_ = dst.Set(ctx, []byte("current"), []byte("x"))

		errReject := errors.New("rejected")
		verify := func(ctx context.Context, staged storage.Getter) error {
			if _, err := staged.Get(ctx, []byte("current")); !errors.Is(err, storage.ErrKeyNotFound) {
				t.Errorf("staged Get(current) error = %v, want ErrKeyNotFound", err)
			}
			return errReject
		}
		if err := dst.(storage.Snapshotter).LoadSnapshot(ctx, rc, verify); !errors.Is(err, errReject) {
			t.Fatalf("LoadSnapshot() error = %v, want %v", err, errReject)
		}
		if got, err := dst.Get(ctx, []byte("current")); err != nil || string(got) != "x" {
			t.Errorf("Get(current) = (%q, %v), want (%q, nil)", got, err, "x")
		}
		if _, err := dst.Get(ctx, []byte("incoming")); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get(incoming) error = %v, want ErrKeyNotFound", err)
		}
		if err := dst.Set(ctx, []byte("after"), []byte("y")); err != nil {
			t.Errorf("Set() after rejected load error = %v", err)
		}
	})
}
