package securestore

import (
	"context"

	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/internal/storage/memory"
	"github.com/yndnr/persist-securestore/internal/storage/sqlite"
)

// Open opens the backend named by cfg.Backend in cfg.DataDir and unlocks
// its keyring.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.verify(true); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	backend, err := openBackend(cfg, o)
	if err != nil {
		return nil, err
	}

	s, err := New(ctx, backend, cfg, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return s, nil
}

func openBackend(cfg Config, o options) (storage.Backend, error) {
	logger := o.logger.With("backend", cfg.Backend)

	switch cfg.Backend {
	case storage.KindSQLite:
		b, err := sqlite.OpenDir(cfg.DataDir, logger)
		if err != nil {
			return nil, ErrStorage.WithDetails("open sqlite").WithCause(err)
		}
		return b, nil
	case storage.KindMemory:
		return memory.New(), nil
	default:
		b, err := storage.NewBadgerBackend(cfg.DataDir, cfg.Badger, logger)
		if err != nil {
			return nil, ErrStorage.WithDetails("open badger").WithCause(err)
		}
		if o.registerer != nil {
			b.RegisterMetrics(o.registerer)
		}
		return b, nil
	}
}
