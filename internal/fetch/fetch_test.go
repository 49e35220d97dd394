package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestFetcherAutoFetchSuccess(t *testing.T) {
	var succeeded atomic.Bool
	f := New(context.Background(), func(ctx context.Context) (string, error) {
		return "hello", nil
	}, Options[string]{
		OnSuccess: func(string) { succeeded.Store(true) },
	})
	defer f.Close()

	waitFor(t, "fetch to settle", func() bool { return f.Snapshot().HasData && succeeded.Load() })

	snap := f.Snapshot()
	if snap.Data != "hello" {
		t.Errorf("Data = %q, want %q", snap.Data, "hello")
	}
	if snap.Err != "" {
		t.Errorf("Err = %q, want empty", snap.Err)
	}
	if snap.Loading {
		t.Error("Loading = true after settle")
	}
	if !succeeded.Load() {
		t.Error("OnSuccess not invoked")
	}
}

func TestFetcherInitialDataAndSkipAutoFetch(t *testing.T) {
	seed := 42
	var calls atomic.Int32
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	}, Options[int]{InitialData: &seed, SkipAutoFetch: true})
	defer f.Close()

	snap := f.Snapshot()
	if !snap.HasData || snap.Data != 42 {
		t.Fatalf("snapshot = %+v, want seeded 42", snap)
	}

	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("adapter called %d times despite SkipAutoFetch", calls.Load())
	}

	f.Refetch()
	if got := f.Snapshot().Data; got != 7 {
		t.Errorf("Data after Refetch = %d, want 7", got)
	}
}

// TestFetcherSingleFlight pins last-requested-wins: a superseded attempt's
// late resolution must never overwrite the newer result.
func TestFetcherSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32

	f := New(context.Background(), func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}, Options[string]{SkipAutoFetch: true})
	defer f.Close()

	f.Invalidate()
	<-entered

	// Supersede the in-flight attempt, then let it resolve late.
	f.Refetch()
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := f.Snapshot()
	if snap.Data != "fresh" {
		t.Errorf("Data = %q, want %q (late resolution overwrote state)", snap.Data, "fresh")
	}
}

// TestFetcherCloseSafety: a resolution after Close must not mutate state or
// panic.
func TestFetcherCloseSafety(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	f := New(context.Background(), func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		return "late", nil
	}, Options[string]{})

	<-entered
	f.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := f.Snapshot()
	if snap.HasData || snap.Err != "" {
		t.Errorf("state mutated after Close: %+v", snap)
	}
}

// TestFetcherRetryBound: Retry{Count: 2} means exactly 3 adapter invocations,
// then the fetcher goes idle with Err set until Retry is called.
func TestFetcherRetryBound(t *testing.T) {
	var calls atomic.Int32
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	}, Options[int]{Retry: RetryPolicy{Count: 2, Delay: 10 * time.Millisecond}})
	defer f.Close()

	waitFor(t, "retries to exhaust", func() bool { return calls.Load() == 3 })
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 3 {
		t.Fatalf("adapter invoked %d times, want exactly 3", got)
	}
	snap := f.Snapshot()
	if snap.Err != "boom" {
		t.Errorf("Err = %q, want %q", snap.Err, "boom")
	}
	if snap.Loading {
		t.Error("Loading = true after retries exhausted")
	}

	// Manual retry resets the budget and fetches again.
	f.Retry()
	waitFor(t, "manual retry to run", func() bool { return calls.Load() > 3 })
}

// TestFetcherErrorDiscardsData pins the policy that a failed fetch discards
// the previous successful value rather than keeping it.
func TestFetcherErrorDiscardsData(t *testing.T) {
	var fail atomic.Bool
	f := New(context.Background(), func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("down")
		}
		return "ok", nil
	}, Options[string]{})
	defer f.Close()

	waitFor(t, "first fetch", func() bool { return f.Snapshot().HasData })

	fail.Store(true)
	f.Refetch()

	snap := f.Snapshot()
	if snap.HasData {
		t.Error("HasData = true after failed fetch, want previous value discarded")
	}
	if snap.Err != "down" {
		t.Errorf("Err = %q, want %q", snap.Err, "down")
	}
}

func TestFetcherPanicBecomesError(t *testing.T) {
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		panic("bad adapter")
	}, Options[int]{SkipAutoFetch: true})
	defer f.Close()

	f.Refetch()

	snap := f.Snapshot()
	if snap.Err == "" {
		t.Fatal("panic did not surface as Err")
	}
}

func TestFetcherErrorMessageFallback(t *testing.T) {
	var notified atomic.Value
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("")
	}, Options[int]{
		SkipAutoFetch: true,
		ErrorMessage:  "could not load widgets",
		Notify:        func(msg string) { notified.Store(msg) },
	})
	defer f.Close()

	f.Refetch()

	if got := f.Snapshot().Err; got != "could not load widgets" {
		t.Errorf("Err = %q, want fallback message", got)
	}
	if got, _ := notified.Load().(string); got != "could not load widgets" {
		t.Errorf("Notify received %q, want fallback message", got)
	}
}

func TestFetcherOnErrorCallback(t *testing.T) {
	var got atomic.Value
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("nope")
	}, Options[int]{
		SkipAutoFetch: true,
		OnError:       func(err error) { got.Store(err.Error()) },
	})
	defer f.Close()

	f.Refetch()

	if msg, _ := got.Load().(string); msg != "nope" {
		t.Errorf("OnError received %q, want %q", msg, "nope")
	}
}

func TestFetcherSetData(t *testing.T) {
	f := New(context.Background(), func(ctx context.Context) (string, error) {
		return "", errors.New("unused")
	}, Options[string]{SkipAutoFetch: true})
	defer f.Close()

	f.SetData("manual")
	snap := f.Snapshot()
	if !snap.HasData || snap.Data != "manual" {
		t.Errorf("snapshot = %+v, want manual data", snap)
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	}, RetryPolicy{Count: 3, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "done" || calls != 3 {
		t.Errorf("got %q after %d calls, want done after 3", got, calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("always")
	}, RetryPolicy{Count: 2, Delay: time.Millisecond})
	if err == nil || err.Error() != "always" {
		t.Fatalf("Do() error = %v, want last failure", err)
	}
	if calls != 3 {
		t.Errorf("adapter invoked %d times, want 3", calls)
	}
}

func TestDoPermanentStopsRetrying(t *testing.T) {
	sentinel := errors.New("declined")
	var calls int
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(sentinel)
	}, RetryPolicy{Count: 5, Delay: time.Millisecond})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Do() error = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("adapter invoked %d times, want 1", calls)
	}
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.New("transient")
	}, RetryPolicy{Count: 3, Delay: time.Minute})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}
