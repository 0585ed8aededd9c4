package securestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/persist-securestore/internal/keylock"
	"github.com/yndnr/persist-securestore/internal/storage"
	"github.com/yndnr/persist-securestore/internal/telemetry/metric"
	"github.com/yndnr/persist-securestore/pkg/crypto/adaptive"
)

// recordVersion is the first byte of every sealed item.
const recordVersion byte = 1

// Store is an encrypted key-value facility over a storage.Backend.
//
// All methods are safe for concurrent use. Operations on one key are
// serialized; operations on different keys run concurrently.
type Store struct {
	// mu excludes Close and Restore from in-flight operations.
	mu     sync.RWMutex
	closed bool

	backend storage.Backend
	cipher  adaptive.Cipher
	sec     secret
	cfg     Config
	locks   *keylock.Striped
	logger  *slog.Logger
	metrics *metric.Store
}

// New unlocks (or initializes) the keyring in backend and returns a Store
// that owns backend: closing the Store closes it.
func New(ctx context.Context, backend storage.Backend, cfg Config, opts ...Option) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.verify(false); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	cipherType, _ := adaptive.ParseCipherType(cfg.Cipher)
	sec := secret{passphrase: []byte(cfg.Passphrase), rawKey: bytes.Clone(cfg.Key)}

	c, created, err := unlockKeyring(ctx, backend, cfg.Namespace, sec, cipherType, cfg.KDF)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("namespace", cfg.Namespace)
	if created {
		logger.Info("keyring created", "cipher", c.Type())
	} else {
		logger.Debug("keyring unlocked", "cipher", c.Type())
	}

	return &Store{
		backend: backend,
		cipher:  c,
		sec:     sec,
		cfg:     cfg,
		locks:   keylock.New(keylock.DefaultStripes),
		logger:  logger,
		metrics: metric.NewStore(o.registerer),
	}, nil
}

// Namespace returns the store's namespace.
func (s *Store) Namespace() string { return s.cfg.Namespace }

// MaxValueBytes returns the value cap, 0 meaning none.
func (s *Store) MaxValueBytes() int { return s.cfg.MaxValueBytes }

// begin guards an operation against Close.
func (s *Store) begin(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	return s.mu.RUnlock, nil
}

func (s *Store) observe(op string, start time.Time, found bool, err error) {
	result := metric.ResultOK
	switch {
	case err != nil:
		result = metric.ResultError
	case !found:
		result = metric.ResultNotFound
	}
	s.metrics.ObserveOp(op, result, time.Since(start))
}

// GetItem returns the value stored under key. found is false when the key
// is absent.
func (s *Store) GetItem(ctx context.Context, key string) (value string, found bool, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, found, err) }()

	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	done, err := s.begin(ctx)
	if err != nil {
		return "", false, err
	}
	defer done()
	defer s.locks.Lock(key)()

	raw, err := s.backend.Get(ctx, itemKey(s.cfg.Namespace, key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ErrStorage.WithCause(err)
	}

	plain, err := s.open(key, raw)
	if err != nil {
		s.logger.Warn("item failed authentication", "item", key)
		return "", false, err
	}
	return string(plain), true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { s.observe("set", start, true, err) }()

	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ValidateValue(value, s.cfg.MaxValueBytes); err != nil {
		return err
	}
	done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	sealed, err := s.seal(key, []byte(value))
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(key)
	err = s.backend.Set(ctx, itemKey(s.cfg.Namespace, key), sealed)
	unlock()
	if err != nil {
		return ErrStorage.WithCause(err)
	}

	s.metrics.ObserveValue(len(value))
	s.logger.Debug("item stored", "item", key, "value_bytes", len(value))
	return nil
}

// DeleteItem removes key. Removing an absent key succeeds.
func (s *Store) DeleteItem(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, true, err) }()

	if err := ValidateKey(key); err != nil {
		return err
	}
	done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	unlock := s.locks.Lock(key)
	err = s.backend.Delete(ctx, itemKey(s.cfg.Namespace, key))
	unlock()
	if err != nil {
		return ErrStorage.WithCause(err)
	}

	s.logger.Debug("item removed", "item", key)
	return nil
}

func (s *Store) seal(key string, plain []byte) ([]byte, error) {
	ct, err := s.cipher.Encrypt(plain, itemAAD(s.cfg.Namespace, key))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(ct))
	out = append(out, recordVersion)
	return append(out, ct...), nil
}

func (s *Store) open(key string, raw []byte) ([]byte, error) {
	if len(raw) == 0 || raw[0] != recordVersion {
		return nil, ErrCorrupted.WithDetails("unknown record version")
	}
	plain, err := s.cipher.Decrypt(raw[1:], itemAAD(s.cfg.Namespace, key))
	if err != nil {
		return nil, ErrCorrupted.WithCause(err)
	}
	return plain, nil
}

// Stats describes a store.
type Stats struct {
	Namespace     string         `json:"namespace" yaml:"namespace"`
	Items         uint64         `json:"items" yaml:"items"`
	Cipher        string         `json:"cipher" yaml:"cipher"`
	MaxValueBytes int            `json:"max_value_bytes" yaml:"max_value_bytes"`
	Backend       *storage.Stats `json:"backend" yaml:"backend"`
}

// Stats counts the namespace's items and reports backend statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	st := &Stats{
		Namespace:     s.cfg.Namespace,
		Cipher:        string(s.cipher.Type()),
		MaxValueBytes: s.cfg.MaxValueBytes,
	}
	err = s.backend.Scan(ctx, itemPrefix(s.cfg.Namespace), func(_, _ []byte) bool {
		st.Items++
		return true
	})
	if err != nil {
		return nil, ErrStorage.WithCause(err)
	}
	if st.Backend, err = s.backend.Stats(ctx); err != nil {
		return nil, ErrStorage.WithCause(err)
	}
	return st, nil
}

// Backup writes a snapshot of the whole backend to w. Values stay sealed in
// the snapshot. It returns the number of bytes written.
func (s *Store) Backup(ctx context.Context, w io.Writer) (int64, error) {
	done, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer done()

	snap, ok := s.backend.(storage.Snapshotter)
	if !ok {
		return 0, ErrSnapshotUnsupported
	}
	rc, err := snap.SaveSnapshot(ctx)
	if err != nil {
		return 0, ErrStorage.WithDetails("save snapshot").WithCause(err)
	}
	defer rc.Close()

	n, err := io.Copy(w, rc)
	if err != nil {
		return n, ErrStorage.WithDetails("write snapshot").WithCause(err)
	}
	s.logger.Info("backup written", "bytes", n)
	return n, nil
}

// Restore replaces the backend contents with a snapshot produced by Backup.
//
// The snapshot's keyring for the store's namespace is unlocked with the
// store's secret before anything is replaced. If it does not open, Restore
// fails with ErrWrongSecret and the current contents and cipher stay as they
// were. A snapshot without a keyring for the namespace gets a fresh one.
// No other operation runs while Restore is in progress.
func (s *Store) Restore(ctx context.Context, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	snap, ok := s.backend.(storage.Snapshotter)
	if !ok {
		return ErrSnapshotUnsupported
	}

	var restored adaptive.Cipher
	verify := func(ctx context.Context, staged storage.Getter) error {
		c, err := openKeyring(ctx, staged, s.cfg.Namespace, s.sec)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		restored = c
		return err
	}
	if err := snap.LoadSnapshot(ctx, r, verify); err != nil {
		var se *Error
		if errors.As(err, &se) {
			s.logger.Warn("backup rejected", "code", se.Code)
			return se
		}
		return ErrStorage.WithDetails("load snapshot").WithCause(err)
	}

	if restored == nil {
		cipherType, _ := adaptive.ParseCipherType(s.cfg.Cipher)
		c, err := createKeyring(ctx, s.backend, s.cfg.Namespace, s.sec, cipherType, s.cfg.KDF)
		if err != nil {
			return err
		}
		restored = c
	}
	s.cipher = restored
	s.logger.Info("backup restored")
	return nil
}

// Close closes the store and its backend. Later operations fail with
// ErrClosed. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	adaptive.Wipe(s.sec.passphrase)
	adaptive.Wipe(s.sec.rawKey)

	if err := s.backend.Close(); err != nil {
		return ErrStorage.WithDetails("close backend").WithCause(err)
	}
	return nil
}
