// Package fetch standardizes the load/error/retry contract for single
// asynchronous reads bound to an owner's lifecycle: single-flight per
// instance, linear retry, and close-safe state updates.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fetcher wraps an Adapter with loading/error state, single-flight
// supersession, optional automatic retry, and manual refetch/retry triggers.
//
// At most one attempt is current at a time: starting a new one supersedes any
// in-flight attempt, and a superseded or post-Close resolution never mutates
// state. Failures are terminal state, never panics - after Retry.Count
// automatic attempts the fetcher goes idle with Err set until Refetch or
// Retry is called.
type Fetcher[T any] struct {
	adapter Adapter[T]
	opts    Options[T]

	lifeCtx    context.Context
	cancelLife context.CancelFunc

	mu            sync.Mutex
	data          T
	hasData       bool
	loading       bool
	errMsg        string
	gen           uint64
	retriesUsed   int
	cancelAttempt context.CancelFunc
	retryTimer    *time.Timer
	closed        bool
}

// New builds a Fetcher scoped to ctx and, unless opts.SkipAutoFetch is set,
// starts the first fetch immediately.
func New[T any](ctx context.Context, adapter Adapter[T], opts Options[T]) *Fetcher[T] {
	opts.applyDefaults()

	lifeCtx, cancel := context.WithCancel(ctx)
	f := &Fetcher[T]{
		adapter:    adapter,
		opts:       opts,
		lifeCtx:    lifeCtx,
		cancelLife: cancel,
	}
	if opts.InitialData != nil {
		f.data = *opts.InitialData
		f.hasData = true
	}
	if !opts.SkipAutoFetch {
		if gen, attemptCtx, ok := f.begin(); ok {
			go f.run(gen, attemptCtx)
		}
	}
	return f
}

// Snapshot returns a copy of the current state.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot[T]{Data: f.data, HasData: f.hasData, Loading: f.loading, Err: f.errMsg}
}

// Refetch re-invokes the adapter unconditionally and waits for the attempt to
// settle. Automatic retries after a failure continue in the background.
func (f *Fetcher[T]) Refetch() {
	gen, attemptCtx, ok := f.begin()
	if !ok {
		return
	}
	f.run(gen, attemptCtx)
}

// Retry resets the retry budget and re-invokes asynchronously.
func (f *Fetcher[T]) Retry() {
	gen, attemptCtx, ok := f.begin()
	if !ok {
		return
	}
	go f.run(gen, attemptCtx)
}

// Invalidate marks the current value stale and re-invokes asynchronously.
// This is the dependency-change trigger: rapid successive calls collapse to
// the last one winning.
func (f *Fetcher[T]) Invalidate() {
	gen, attemptCtx, ok := f.begin()
	if !ok {
		return
	}
	go f.run(gen, attemptCtx)
}

// SetData overwrites the visible value without touching the error state.
func (f *Fetcher[T]) SetData(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.data = v
	f.hasData = true
}

// Close releases the fetcher. Any in-flight attempt is cancelled and its
// resolution becomes a no-op. Safe to call more than once.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	f.closed = true
	if f.cancelAttempt != nil {
		f.cancelAttempt()
		f.cancelAttempt = nil
	}
	if f.retryTimer != nil {
		f.retryTimer.Stop()
		f.retryTimer = nil
	}
	f.mu.Unlock()
	f.cancelLife()
}

// begin opens a new fetch cycle: it supersedes any in-flight attempt, resets
// the retry budget, and returns the generation token guarding the cycle.
func (f *Fetcher[T]) begin() (uint64, context.Context, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, nil, false
	}
	f.gen++
	f.retriesUsed = 0
	return f.armAttemptLocked(), f.attemptCtxLocked(), true
}

// armAttemptLocked cancels the previous attempt and marks loading.
func (f *Fetcher[T]) armAttemptLocked() uint64 {
	if f.cancelAttempt != nil {
		f.cancelAttempt()
	}
	if f.retryTimer != nil {
		f.retryTimer.Stop()
		f.retryTimer = nil
	}
	f.loading = true
	return f.gen
}

func (f *Fetcher[T]) attemptCtxLocked() context.Context {
	ctx, cancel := context.WithCancel(f.lifeCtx)
	f.cancelAttempt = cancel
	return ctx
}

// run executes one attempt and settles it, scheduling a retry on failure.
func (f *Fetcher[T]) run(gen uint64, ctx context.Context) {
	val, err := f.invoke(ctx)

	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}

	if err == nil {
		f.data = val
		f.hasData = true
		f.errMsg = ""
		f.loading = false
		f.retriesUsed = 0
		onSuccess := f.opts.OnSuccess
		f.mu.Unlock()
		if onSuccess != nil {
			onSuccess(val)
		}
		return
	}

	msg := err.Error()
	if msg == "" {
		msg = f.opts.ErrorMessage
	}
	f.errMsg = msg
	var zero T
	f.data = zero
	f.hasData = false

	willRetry := f.retriesUsed < f.opts.Retry.Count
	if willRetry {
		f.retriesUsed++
		f.loading = true
		attemptCtx := f.attemptCtxLocked()
		f.retryTimer = time.AfterFunc(f.opts.Retry.Delay, func() {
			f.mu.Lock()
			if f.closed || gen != f.gen {
				f.mu.Unlock()
				return
			}
			f.mu.Unlock()
			f.run(gen, attemptCtx)
		})
	} else {
		f.loading = false
	}
	notify := f.opts.Notify
	onError := f.opts.OnError
	logger := f.opts.Logger
	f.mu.Unlock()

	if notify != nil {
		notify(msg)
	}
	if onError != nil {
		onError(err)
	} else {
		logger.Error("fetch failed", zap.String("error", msg), zap.Bool("will_retry", willRetry))
	}
}

// invoke calls the adapter, converting a panic into an ordinary error so a
// misbehaving adapter still surfaces as fetcher state.
func (f *Fetcher[T]) invoke(ctx context.Context) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	if f.opts.MockDelay > 0 {
		select {
		case <-time.After(f.opts.MockDelay):
		case <-ctx.Done():
			return val, ctx.Err()
		}
	}
	return f.adapter(ctx)
}
