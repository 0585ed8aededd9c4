package persist

import (
	"context"

	"github.com/yndnr/persist-securestore/pkg/future"
)

// DeclaredStorage is the storage-engine contract in its published shape,
// whose read and write signatures are transposed: GetItem takes a value and
// stores it, SetItem takes only a key and reads it. Callers written against
// that shape get matching behaviour; new code should use Storage.
type DeclaredStorage interface {
	// GetItem stores value under key and resolves with no value.
	GetItem(ctx context.Context, key, value string) *future.Future[struct{}]

	// SetItem resolves with the value stored under key, or nil when absent.
	SetItem(ctx context.Context, key string) *future.Future[*string]

	// RemoveItem resolves once key is gone.
	RemoveItem(ctx context.Context, key string) *future.Future[struct{}]
}

// Declared returns a view of a implementing DeclaredStorage. It shares the
// adapter's facility and options.
func (a *Adapter) Declared() DeclaredStorage {
	return declared{a: a}
}

type declared struct {
	a *Adapter
}

func (d declared) GetItem(ctx context.Context, key, value string) *future.Future[struct{}] {
	return d.a.SetItem(ctx, key, value)
}

func (d declared) SetItem(ctx context.Context, key string) *future.Future[*string] {
	return d.a.GetItem(ctx, key)
}

func (d declared) RemoveItem(ctx context.Context, key string) *future.Future[struct{}] {
	return d.a.RemoveItem(ctx, key)
}
