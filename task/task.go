// Package task runs a single background loop under a cooperative stop signal.
//
// A [Handle] owns exactly one goroutine. The goroutine is expected to check its
// [Signal] at iteration boundaries; [Handle.Stop] sets the signal and then waits for the
// goroutine to return, so it can block for as long as one full iteration takes. There
// is no timeout.
package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State of the goroutine behind a Handle.
type State int32

const (
	// Running: the body has not returned and the signal is unset.
	Running State = iota
	// Stopped: the signal was set. The body may still be finishing its iteration.
	Stopped
	// Finished: the body returned nil without being signalled.
	Finished
	// Failed: the body returned an error or panicked.
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrPanic wraps a value recovered from a panicking body.
var ErrPanic = errors.New("task body panicked")

// Signal is a latch: once set it is never unset.
type Signal struct {
	ch   chan struct{}
	once sync.Once
	set  atomic.Bool
}

func newSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Stopped reports whether the signal has been set.
func (s *Signal) Stopped() bool {
	return s.set.Load()
}

// Done returns a channel that is closed when the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// trigger sets the signal and reports whether this call was the one that set it.
func (s *Signal) trigger() bool {
	first := false
	s.once.Do(func() {
		s.set.Store(true)
		close(s.ch)
		first = true
	})
	return first
}

// Body is the loop run by a Handle. It must return once sig is set.
type Body func(sig *Signal) error

type Handle struct {
	ID     string
	Name   string
	logger *slog.Logger

	sig  *Signal
	done chan struct{}

	// written once by the goroutine before done is closed
	err error
}

type Option func(*Handle)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Start launches body on a new goroutine and returns without waiting for it.
func Start(name string, body Body, opts ...Option) *Handle {
	h := &Handle{
		ID:     uuid.NewString(),
		Name:   name,
		logger: slog.Default(),
		sig:    newSignal(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("task", h.Name, "taskID", h.ID)

	go h.run(body)
	return h
}

func (h *Handle) run(body Body) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			h.err = fmt.Errorf("%w: %v", ErrPanic, r)
			h.logger.Error("task panicked", "err", h.err)
		}
	}()

	h.logger.Debug("task starting")
	err := body(h.sig)
	if err != nil {
		h.err = err
		h.logger.Error("task exited with error", "err", err)
		return
	}
	h.logger.Debug("task exited")
}

// Stop sets the stop signal and blocks until the goroutine has returned.
//
// The body only observes the signal between iterations, so Stop may wait for a full
// fetch-and-react batch to complete. Calling Stop on a handle that was already
// signalled only logs a warning.
func (h *Handle) Stop() {
	if !h.sig.trigger() {
		h.logger.Warn("task is already stopped")
	}
	<-h.done
}

// IsStopped reports whether the stop signal was set, regardless of whether the
// goroutine has returned yet.
func (h *Handle) IsStopped() bool {
	return h.sig.Stopped()
}

// Wait blocks until the goroutine has returned, without signalling it.
func (h *Handle) Wait() {
	<-h.done
}

// Done returns a channel closed once the goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the error that ended the goroutine, if any. It is nil while the
// goroutine is still running.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *Handle) State() State {
	select {
	case <-h.done:
		if h.err != nil {
			return Failed
		}
		if h.sig.Stopped() {
			return Stopped
		}
		return Finished
	default:
		if h.sig.Stopped() {
			return Stopped
		}
		return Running
	}
}
