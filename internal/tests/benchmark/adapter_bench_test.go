package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/pkg/persist"
)

// BenchmarkAdapterRoundTrip measures set then get through futures.
func BenchmarkAdapterRoundTrip(b *testing.B) {
	a := persist.New(openStore(b, storage.KindMemory), nil)
	ctx := context.Background()
	value := newValue(256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.SetItem(ctx, "persist:root", value).Wait(ctx); err != nil {
			b.Fatal(err)
		}
		if _, err := a.GetItem(ctx, "persist:root").Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDefaultReplacer measures key rewriting alone.
func BenchmarkDefaultReplacer(b *testing.B) {
	keys := map[string]string{
		"legal":   "persist.root-state_v1",
		"illegal": "persist:root/state@v1",
		"unicode": "persist:状態:ключ",
	}
	for name, key := range keys {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				persist.DefaultReplacer(key, persist.DefaultReplaceCharacter)
			}
		})
	}
}
