package persist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/persist-securestore/internal/telemetry/metric"
	"github.com/yndnr/persist-securestore/pkg/future"
)

// ErrNoFacility is the rejection reason of every operation on an adapter
// built without a facility.
var ErrNoFacility = errors.New("persist: no storage facility")

var errPanicked = errors.New("persist: operation panicked")

// Options configures key replacement. A nil *Options applies both defaults.
type Options struct {
	// ReplaceCharacter substitutes characters illegal in the facility's key
	// namespace. Empty means DefaultReplaceCharacter.
	ReplaceCharacter string

	// Replacer rewrites keys before they reach the facility. Nil means
	// DefaultReplacer.
	Replacer Replacer
}

// Facility is the secure key-value capability the adapter wraps.
// *securestore.Store implements it.
type Facility interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	DeleteItem(ctx context.Context, key string) error
}

// Storage is the storage-engine contract with conventional semantics.
type Storage interface {
	// GetItem resolves with the stored value, or nil when key is absent.
	GetItem(ctx context.Context, key string) *future.Future[*string]

	// SetItem resolves once value is stored under key.
	SetItem(ctx context.Context, key, value string) *future.Future[struct{}]

	// RemoveItem resolves once key is gone. Removing an absent key resolves.
	RemoveItem(ctx context.Context, key string) *future.Future[struct{}]
}

// Option configures ambient concerns of an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics registers the adapter's rewrite and settlement counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *Adapter) { a.metrics = metric.NewAdapter(reg) }
}

// Adapter implements Storage over a Facility, closed over resolved Options.
type Adapter struct {
	facility         Facility
	replaceCharacter string
	replacer         Replacer
	logger           *slog.Logger
	metrics          *metric.Adapter
}

var _ Storage = (*Adapter)(nil)

// New returns an adapter over facility. It has no side effects.
func New(facility Facility, opts *Options, options ...Option) *Adapter {
	a := &Adapter{
		facility:         facility,
		replaceCharacter: DefaultReplaceCharacter,
		replacer:         DefaultReplacer,
		logger:           slog.Default(),
	}
	if opts != nil {
		if opts.ReplaceCharacter != "" {
			a.replaceCharacter = opts.ReplaceCharacter
		}
		if opts.Replacer != nil {
			a.replacer = opts.Replacer
		}
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// ReplaceCharacter returns the resolved replace character.
func (a *Adapter) ReplaceCharacter() string {
	return a.replaceCharacter
}

// ResolveKey returns the key the facility sees for key.
func (a *Adapter) ResolveKey(key string) string {
	return a.replacer(key, a.replaceCharacter)
}

func (a *Adapter) resolve(key string) string {
	resolved := a.ResolveKey(key)
	if resolved != key {
		a.metrics.KeyRewritten()
		a.logger.Debug("key rewritten", "item", key, "resolved", resolved)
	}
	return resolved
}

// GetItem resolves with a pointer to the stored value, or nil when absent.
func (a *Adapter) GetItem(ctx context.Context, key string) *future.Future[*string] {
	return run(ctx, a, "get", func(ctx context.Context) (*string, error) {
		v, found, err := a.facility.GetItem(ctx, a.resolve(key))
		if err != nil || !found {
			return nil, err
		}
		return &v, nil
	})
}

// SetItem resolves once value is stored under the resolved key.
func (a *Adapter) SetItem(ctx context.Context, key, value string) *future.Future[struct{}] {
	return run(ctx, a, "set", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.facility.SetItem(ctx, a.resolve(key), value)
	})
}

// RemoveItem resolves once the resolved key is deleted.
func (a *Adapter) RemoveItem(ctx context.Context, key string) *future.Future[struct{}] {
	return run(ctx, a, "remove", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.facility.DeleteItem(ctx, a.resolve(key))
	})
}

func run[T any](ctx context.Context, a *Adapter, op string, fn func(context.Context) (T, error)) *future.Future[T] {
	if a.facility == nil {
		a.metrics.ObserveSettled(op, ErrNoFacility)
		return future.Rejected[T](ErrNoFacility)
	}
	return future.Go(ctx, func(ctx context.Context) (v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				a.metrics.ObserveSettled(op, errPanicked)
				a.logger.Error("operation panicked", "op", op, "panic", r)
				panic(r)
			}
			a.metrics.ObserveSettled(op, err)
			if err != nil {
				a.logger.Debug("operation rejected", "op", op, "error", err)
			}
		}()
		return fn(ctx)
	})
}
