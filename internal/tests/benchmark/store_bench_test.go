package benchmark

import (
	"context"
	"testing"
)

// BenchmarkStoreSet measures sealed writes per backend and value size.
func BenchmarkStoreSet(b *testing.B) {
	for _, backend := range Backends {
		for _, size := range ValueSizes {
			b.Run(backend+"/"+sizeLabel(size), func(b *testing.B) {
				s := openStore(b, backend)
				ctx := context.Background()
				value := newValue(size)
				keys := make([]string, 1024)
				for i := range keys {
					keys[i] = newItemKey()
				}

				b.SetBytes(int64(size))
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := s.SetItem(ctx, keys[i%len(keys)], value); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkStoreGet measures authenticated reads of existing items.
func BenchmarkStoreGet(b *testing.B) {
	for _, backend := range Backends {
		b.Run(backend, func(b *testing.B) {
			s := openStore(b, backend)
			keys := prefill(b, s, 1000, 256)
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, found, err := s.GetItem(ctx, keys[i%len(keys)]); err != nil || !found {
					b.Fatalf("GetItem() = (%v, %v)", found, err)
				}
			}
		})
	}
}

// BenchmarkStoreGetParallel measures reads from concurrent goroutines.
func BenchmarkStoreGetParallel(b *testing.B) {
	for _, backend := range Backends {
		b.Run(backend, func(b *testing.B) {
			s := openStore(b, backend)
			keys := prefill(b, s, 1000, 256)
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					if _, _, err := s.GetItem(ctx, keys[i%len(keys)]); err != nil {
						b.Error(err)
						return
					}
					i++
				}
			})
		})
	}
}
