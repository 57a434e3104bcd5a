package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hejijunhao/teller/internal/model"
	"github.com/hejijunhao/teller/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithDrainTimeout bounds how long Close waits for buffered results.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write drop the result instead of blocking when the
// buffer is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async moves result delivery off the classifying goroutine. Writes go into
// a buffered channel drained by one background goroutine; inner errors go
// to errFunc instead of the caller.
type Async struct {
	inner        output.Output
	ch           chan model.Result
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration
	dropOnFull   bool
	dropped      atomic.Int64
	closeOnce    sync.Once
}

// New wraps inner and starts the drain goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Result, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write enqueues the result. It blocks while the buffer is full unless
// WithDropOnFull is set, or until ctx is done.
func (a *Async) Write(ctx context.Context, result model.Result) error {
	if a.dropOnFull {
		select {
		case a.ch <- result:
		default:
			a.dropped.Add(1)
			slog.Warn("async output buffer full, dropping result",
				"dataset", int(result.Dataset), "category", result.Category)
		}
		return nil
	}
	select {
	case a.ch <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many results were discarded because the buffer was full.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting results, waits for the buffer to drain (bounded by
// the drain timeout), then closes the inner output. Safe to call twice.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async output drain timed out", "pending", len(a.ch))
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for result := range a.ch {
		if err := a.inner.Write(context.Background(), result); err != nil {
			a.errFunc(err)
		}
	}
}
