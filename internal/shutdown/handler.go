package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler turns SIGINT/SIGTERM into context cancellation and runs the
// registered cleanups once.
type Handler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	cleanupFns []func()
	once       sync.Once
	signals    chan os.Signal
}

// New creates a new shutdown handler derived from parent.
func New(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	return &Handler{ctx: ctx, cancel: cancel}
}

// Context is cancelled on the first signal or on Shutdown.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers fn to run on shutdown. Cleanups run in reverse
// registration order.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts listening for shutdown signals. A second signal exits
// immediately with status 130.
func (h *Handler) Listen() {
	h.signals = make(chan os.Signal, 2)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		if _, ok := <-h.signals; !ok {
			return
		}
		go h.Shutdown()
		if _, ok := <-h.signals; ok {
			os.Exit(130)
		}
	}()
}

// Stop unregisters the signal handlers.
func (h *Handler) Stop() {
	if h.signals != nil {
		signal.Stop(h.signals)
		close(h.signals)
		h.signals = nil
	}
}

// Shutdown cancels the context and runs the cleanups. Later calls do nothing.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}
