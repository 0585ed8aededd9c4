package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/persist-securestore/internal/telemetry/metric"
)

// BadgerBackend implements Backend and Snapshotter using Badger v3.
type BadgerBackend struct {
	mu     sync.RWMutex // guards db across LoadSnapshot
	db     *badger.DB
	opts   badger.Options
	cfg    BadgerConfig
	logger *slog.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewBadgerBackend opens (creating if needed) a Badger database in dir.
func NewBadgerBackend(dir string, cfg BadgerConfig, logger *slog.Logger) (*BadgerBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	b := &BadgerBackend{
		db:     db,
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go b.gcLoop()

	logger.Debug("badger backend opened",
		"dir", dir,
		"cache_size", opts.BlockCacheSize,
		"gc_interval", cfg.GCInterval)

	return b, nil
}

func (b *BadgerBackend) handle() (*badger.DB, func(), error) {
	b.mu.RLock()
	if b.closed.Load() {
		b.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return b.db, b.mu.RUnlock, nil
}

// Get retrieves a value by key.
func (b *BadgerBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	db, release, err := b.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	return getFrom(db, key)
}

func getFrom(db *badger.DB, key []byte) ([]byte, error) {
	var value []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// badgerGetter reads from a Badger database outside any backend lock.
type badgerGetter struct {
	db *badger.DB
}

func (g badgerGetter) Get(_ context.Context, key []byte) ([]byte, error) {
	return getFrom(g.db, key)
}

// Set stores a key-value pair.
func (b *BadgerBackend) Set(ctx context.Context, key, value []byte) error {
	db, release, err := b.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes a key. Deleting an absent key is not an error.
func (b *BadgerBackend) Delete(ctx context.Context, key []byte) error {
	db, release, err := b.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (b *BadgerBackend) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	db, release, err := b.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// SaveSnapshot writes a full Badger backup to a temporary file and returns a
// reader that removes the file on Close.
func (b *BadgerBackend) SaveSnapshot(ctx context.Context) (io.ReadCloser, error) {
	db, release, err := b.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	tmpFile, err := os.CreateTemp("", "securestore-badger-*.bak")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := db.Backup(tmpFile, 0); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("backup: %w", err)
	}

	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("seek: %w", err)
	}

	return &autoDeleteReader{ReadCloser: tmpFile, path: tmpFile.Name()}, nil
}

// LoadSnapshot replaces the database with a backup produced by SaveSnapshot.
//
// The backup is spooled to disk and, when verify is set, loaded into an
// in-memory staging database that verify inspects. The live data is backed
// up before DropAll so a failed Load can be rolled back.
func (b *BadgerBackend) LoadSnapshot(ctx context.Context, r io.Reader, verify VerifyFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return ErrClosed
	}

	spool, err := spoolTemp(r, "securestore-restore-*.bak")
	if err != nil {
		return err
	}
	defer spool.Close()

	if verify != nil {
		if err := b.verifyStaged(ctx, spool, verify); err != nil {
			return err
		}
		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp("", "securestore-badger-prior-*.bak")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	prior := &autoDeleteFile{File: f}
	defer prior.Close()
	if _, err := b.db.Backup(prior, 0); err != nil {
		return fmt.Errorf("backup existing data: %w", err)
	}

	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("drop existing data: %w", err)
	}
	if err := b.db.Load(spool, 256); err != nil {
		loadErr := fmt.Errorf("load snapshot: %w", err)
		if rerr := b.rollback(prior); rerr != nil {
			b.logger.Error("snapshot rollback failed", "dir", b.opts.Dir, "error", rerr)
			return errors.Join(loadErr, rerr)
		}
		return loadErr
	}

	b.logger.Info("snapshot restored", "dir", b.opts.Dir)
	return nil
}

func (b *BadgerBackend) verifyStaged(ctx context.Context, r io.Reader, verify VerifyFunc) error {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(b.opts.Logger).
		WithMemTableSize(8 << 20)
	staged, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open staging db: %w", err)
	}
	defer staged.Close()

	if err := staged.Load(r, 256); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return verify(ctx, badgerGetter{db: staged})
}

func (b *BadgerBackend) rollback(prior *autoDeleteFile) error {
	if _, err := prior.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rollback seek: %w", err)
	}
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("rollback drop: %w", err)
	}
	if err := b.db.Load(prior, 256); err != nil {
		return fmt.Errorf("rollback load: %w", err)
	}
	return nil
}

// spoolTemp copies r into a temporary file positioned at its start. Closing
// the returned reader removes the file.
func spoolTemp(r io.Reader, pattern string) (*autoDeleteFile, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	spool := &autoDeleteFile{File: f}
	if _, err := io.Copy(f, r); err != nil {
		spool.Close()
		return nil, fmt.Errorf("spool snapshot: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		spool.Close()
		return nil, fmt.Errorf("seek: %w", err)
	}
	return spool, nil
}

// GC runs value-log garbage collection until Badger reports nothing left to
// rewrite. It returns the number of value-log files rewritten.
func (b *BadgerBackend) GC(ctx context.Context) (int, error) {
	db, release, err := b.handle()
	if err != nil {
		return 0, err
	}
	defer release()

	startTime := time.Now()
	threshold := b.cfg.GCThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	rewrites := 0
	for ctx.Err() == nil {
		err := db.RunValueLogGC(threshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return rewrites, fmt.Errorf("gc: %w", err)
		}
		rewrites++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())
	b.gcRuns.Add(1)
	if b.metricsGCRuns != nil {
		b.metricsGCRuns.Inc()
		b.metricsLastGCTime.SetToCurrentTime()
	}

	b.logger.Debug("gc completed",
		"rewrites", rewrites,
		"elapsed", time.Since(startTime))

	return rewrites, nil
}

// Stats returns storage statistics.
func (b *BadgerBackend) Stats(ctx context.Context) (*Stats, error) {
	db, release, err := b.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	lsm, vlog := db.Size()

	var keys uint64
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Stats{
		Kind:         KindBadger,
		TotalKeys:    keys,
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   b.lastGCTime.Load(),
	}, nil
}

// Close stops background work and closes the database.
func (b *BadgerBackend) Close() error {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Swap(true) {
		return nil
	}

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	b.logger.Debug("badger backend closed", "dir", b.opts.Dir)
	return nil
}

// RegisterMetrics registers Badger size and GC metrics with reg and starts
// refreshing the size gauges. Backends sharing reg share the series.
// Returns the backend for method chaining.
func (b *BadgerBackend) RegisterMetrics(reg prometheus.Registerer) *BadgerBackend {
	b.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "securestore",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	b.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "securestore",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	b.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "securestore",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	b.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "securestore",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Total Badger value-log GC runs",
	})

	b.metricsLSMSize = metric.Register(reg, b.metricsLSMSize)
	b.metricsValueLogSize = metric.Register(reg, b.metricsValueLogSize)
	b.metricsLastGCTime = metric.Register(reg, b.metricsLastGCTime)
	b.metricsGCRuns = metric.Register(reg, b.metricsGCRuns)

	b.refreshGauges()
	go b.metricsUpdateLoop()

	return b
}

func (b *BadgerBackend) refreshGauges() {
	db, release, err := b.handle()
	if err != nil {
		return
	}
	lsm, vlog := db.Size()
	release()

	b.metricsLSMSize.Set(float64(lsm))
	b.metricsValueLogSize.Set(float64(vlog))
}

func (b *BadgerBackend) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.refreshGauges()
		case <-b.stopCh:
			return
		}
	}
}

func (b *BadgerBackend) gcLoop() {
	defer close(b.doneCh)

	interval, err := time.ParseDuration(b.cfg.GCInterval)
	if err != nil || interval <= 0 {
		b.logger.Warn("invalid gc_interval, using default 10m", "value", b.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := b.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				b.logger.Error("auto gc failed", "error", err)
			}
			cancel()
		case <-b.stopCh:
			return
		}
	}
}

// autoDeleteReader wraps a ReadCloser and deletes the file on close.
type autoDeleteReader struct {
	io.ReadCloser
	path string
}

func (r *autoDeleteReader) Close() error {
	err1 := r.ReadCloser.Close()
	err2 := os.Remove(r.path)
	if err1 != nil {
		return err1
	}
	return err2
}

// autoDeleteFile is a seekable temporary file removed on Close.
type autoDeleteFile struct {
	*os.File
}

func (f *autoDeleteFile) Close() error {
	err1 := f.File.Close()
	err2 := os.Remove(f.Name())
	if err1 != nil {
		return err1
	}
	return err2
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
