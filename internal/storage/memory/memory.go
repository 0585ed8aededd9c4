// Package memory provides an in-process storage.Backend.
//
// Keys are spread over a fixed number of shards selected by murmur3 so
// writers to different keys rarely contend. Data does not survive Close.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/persist-securestore/internal/storage"
)

// DefaultShardCount is the number of shards used by New.
const DefaultShardCount = 16

type shard struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// Backend is a sharded in-memory key-value store.
type Backend struct {
	shards []*shard
	closed atomic.Bool
}

var _ storage.Backend = (*Backend)(nil)

// New creates an empty backend with DefaultShardCount shards.
func New() *Backend {
	return NewWithShards(DefaultShardCount)
}

// NewWithShards creates an empty backend with n shards (minimum 1).
func NewWithShards(n int) *Backend {
	if n < 1 {
		n = 1
	}
	b := &Backend{shards: make([]*shard, n)}
	for i := range b.shards {
		b.shards[i] = &shard{items: make(map[string][]byte)}
	}
	return b
}

func (b *Backend) shardFor(key []byte) *shard {
	return b.shards[murmur3.Sum32(key)%uint32(len(b.shards))]
}

// Get retrieves a copy of the value stored under key.
func (b *Backend) Get(_ context.Context, key []byte) ([]byte, error) {
	if b.closed.Load() {
		return nil, storage.ErrClosed
	}
	s := b.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[string(key)]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value under key.
func (b *Backend) Set(_ context.Context, key, value []byte) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	s := b.shardFor(key)
	s.mu.Lock()
	s.items[string(key)] = bytes.Clone(value)
	s.mu.Unlock()
	return nil
}

// Delete removes key. Absent keys are ignored.
func (b *Backend) Delete(_ context.Context, key []byte) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	s := b.shardFor(key)
	s.mu.Lock()
	delete(s.items, string(key))
	s.mu.Unlock()
	return nil
}

// Scan visits keys with prefix in ascending key order. The visited set is
// taken shard by shard, so writes racing with a scan may or may not be seen.
func (b *Backend) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}

	type kv struct {
		k string
		v []byte
	}
	var matched []kv
	p := string(prefix)
	for _, s := range b.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if len(k) >= len(p) && k[:len(p)] == p {
				matched = append(matched, kv{k, bytes.Clone(v)})
			}
		}
		s.mu.RUnlock()
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].k < matched[j].k })

	for _, e := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn([]byte(e.k), e.v) {
			break
		}
	}
	return nil
}

// Stats reports key count and approximate payload size.
func (b *Backend) Stats(_ context.Context) (*storage.Stats, error) {
	if b.closed.Load() {
		return nil, storage.ErrClosed
	}
	st := &storage.Stats{Kind: storage.KindMemory}
	for _, s := range b.shards {
		s.mu.RLock()
		st.TotalKeys += uint64(len(s.items))
		for k, v := range s.items {
			st.TotalSize += uint64(len(k) + len(v))
		}
		s.mu.RUnlock()
	}
	return st, nil
}

// Close drops all data. Later calls fail with storage.ErrClosed.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	for _, s := range b.shards {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
	}
	return nil
}
