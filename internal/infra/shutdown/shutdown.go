package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Hooks runs cleanup functions in reverse order of registration.
type Hooks struct {
	timeout time.Duration
	mu      sync.Mutex
	hooks   []func(context.Context) error
	ran     bool
}

// NewHooks creates a hook set whose Run gives all hooks timeout in total.
func NewHooks(timeout time.Duration) *Hooks {
	return &Hooks{timeout: timeout}
}

// Add registers a hook.
func (h *Hooks) Add(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// AddCloser registers a hook that ignores the context, such as io.Closer.Close.
func (h *Hooks) AddCloser(fn func() error) {
	h.Add(func(context.Context) error { return fn() })
}

// Run executes every hook once, last registered first, and joins their
// errors. Later calls return nil.
func (h *Hooks) Run() error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
