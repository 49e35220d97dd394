package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Adapter performs one remote read and returns a typed result. The fetcher
// never inspects what the adapter talks to; external stores are consumed
// exclusively through adapters.
type Adapter[T any] func(ctx context.Context) (T, error)

// RetryPolicy caps automatic re-attempts after a failure. The delay between
// attempts is linear, not exponential.
type RetryPolicy struct {
	Count int
	Delay time.Duration
}

const defaultRetryDelay = time.Second

// Options configure a Fetcher at construction. They are fixed for the
// lifetime of the instance; changing a copy afterwards has no effect on an
// in-flight fetch.
type Options[T any] struct {
	// InitialData seeds the snapshot before the first fetch completes.
	InitialData *T

	// SkipAutoFetch suppresses the fetch normally started by New.
	SkipAutoFetch bool

	// OnSuccess and OnError are fire-and-forget side-effect hooks. When a
	// fetch fails and OnError is nil, the failure is logged instead.
	OnSuccess func(T)
	OnError   func(error)

	// Notify surfaces a user-visible message on failure (toast analogue).
	// nil disables notifications.
	Notify func(msg string)

	// ErrorMessage is the fallback when the underlying failure carries no
	// message of its own.
	ErrorMessage string

	Retry RetryPolicy

	// MockDelay inserts an artificial pause before each adapter call, for
	// development fixtures.
	MockDelay time.Duration

	Logger *zap.Logger
}

func (o *Options[T]) applyDefaults() {
	if o.Retry.Count < 0 {
		o.Retry.Count = 0
	}
	if o.Retry.Delay <= 0 {
		o.Retry.Delay = defaultRetryDelay
	}
	if o.ErrorMessage == "" {
		o.ErrorMessage = "request failed"
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Snapshot is a point-in-time copy of fetcher state. Data is only meaningful
// when HasData is true; a failed fetch discards the previous value.
type Snapshot[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     string
}
