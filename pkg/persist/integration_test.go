package persist_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/persist-securestore/internal/storage/memory"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
	"github.com/yndnr/persist-securestore/pkg/persist"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

func newStore(t *testing.T) *securestore.Store {
	t.Helper()
	s, err := securestore.New(context.Background(), memory.New(), securestore.Config{
		Passphrase:    "integration-pass",
		MaxValueBytes: securestore.DefaultMaxValueBytes,
		KDF:           adaptive.KDFParams{Time: 1, Memory: 1024, Threads: 1},
	})
	if err != nil {
		t.Fatalf("securestore.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAdapterOverSecureStore(t *testing.T) {
	s := newStore(t)
	engine := persist.New(s, nil)
	ctx := context.Background()

	if _, err := engine.SetItem(ctx, "persist:root", `{"auth":{"token":"t"}}`).Wait(ctx); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}

	// the store holds the item under the replaced key
	v, found, err := s.GetItem(ctx, "persist_root")
	if err != nil || !found || v != `{"auth":{"token":"t"}}` {
		t.Fatalf("store GetItem(persist_root) = (%q, %v, %v)", v, found, err)
	}

	got, err := engine.GetItem(ctx, "persist:root").Wait(ctx)
	if err != nil || got == nil || *got != v {
		t.Fatalf("GetItem() = (%v, %v)", got, err)
	}
}

func TestAdapterOverSecureStore_Rejections(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	t.Run("value too large", func(t *testing.T) {
		engine := persist.New(s, nil)
		_, err := engine.SetItem(ctx, "big", strings.Repeat("x", securestore.DefaultMaxValueBytes+1)).Wait(ctx)
		if !errors.Is(err, securestore.ErrValueTooLarge) {
			t.Errorf("SetItem() error = %v, want ErrValueTooLarge", err)
		}
	})

	t.Run("illegal replace character", func(t *testing.T) {
		engine := persist.New(s, &persist.Options{ReplaceCharacter: "/"})
		_, err := engine.GetItem(ctx, "persist:root").Wait(ctx)
		if !errors.Is(err, securestore.ErrInvalidKey) {
			t.Errorf("GetItem() error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("closed store", func(t *testing.T) {
		closed := newStore(t)
		_ = closed.Close()
		_, err := persist.New(closed, nil).RemoveItem(ctx, "k").Wait(ctx)
		if !errors.Is(err, securestore.ErrClosed) {
			t.Errorf("RemoveItem() error = %v, want ErrClosed", err)
		}
	})
}
