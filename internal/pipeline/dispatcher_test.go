package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDispatcher_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	subjects := make([]int, 10)
	for i := range subjects {
		subjects[i] = i + 1
	}

	d := Dispatcher[int, string]{
		Limit: 3,
		Classify: func(_ context.Context, n int) (string, error) {
			if n == 4 || n == 7 {
				return "", fmt.Errorf("malformed response for subject %d", n)
			}
			return fmt.Sprintf("label-%d", n), nil
		},
		Describe: func(n int) string { return fmt.Sprintf("subject %d", n) },
		Logger:   zerolog.Nop(),
	}

	done := make(chan []Outcome[int, string], 1)
	go func() {
		done <- d.Run(context.Background(), subjects)
	}()

	var outcomes []Outcome[int, string]
	select {
	case outcomes = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher blocked past time budget")
	}

	successes := Successes(outcomes)
	if len(successes) != 8 {
		t.Fatalf("expected 8 successes, got %d", len(successes))
	}
	failures := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			if o.Subject != 4 && o.Subject != 7 {
				t.Fatalf("unexpected failed subject %d", o.Subject)
			}
		}
	}
	if failures != 2 {
		t.Fatalf("expected 2 failures, got %d", failures)
	}
}

func TestDispatcher_ResultSubjectCorrespondence(t *testing.T) {
	t.Parallel()

	subjects := []int{5, 1, 9, 3}
	d := Dispatcher[int, string]{
		Limit: 2,
		Classify: func(_ context.Context, n int) (string, error) {
			// Finish out of order on purpose.
			time.Sleep(time.Duration(n) * time.Millisecond)
			return fmt.Sprintf("label-%d", n), nil
		},
		Logger: zerolog.Nop(),
	}

	outcomes := d.Run(context.Background(), subjects)
	for i, o := range outcomes {
		if o.Subject != subjects[i] {
			t.Fatalf("outcome %d: subject %d does not match input %d", i, o.Subject, subjects[i])
		}
		if o.Err != nil {
			t.Fatalf("unexpected error: %v", o.Err)
		}
		if want := fmt.Sprintf("label-%d", o.Subject); o.Result != want {
			t.Fatalf("subject %d paired with result %q", o.Subject, o.Result)
		}
	}
}

func TestDispatcher_HonorsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	const limit = 3
	var inFlight, peak int64
	var mu sync.Mutex

	d := Dispatcher[int, int]{
		Limit: limit,
		Classify: func(_ context.Context, n int) (int, error) {
			current := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if current > peak {
				peak = current
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return n, nil
		},
		Logger: zerolog.Nop(),
	}

	subjects := make([]int, 20)
	for i := range subjects {
		subjects[i] = i
	}
	d.Run(context.Background(), subjects)

	mu.Lock()
	defer mu.Unlock()
	if peak > limit {
		t.Fatalf("concurrency ceiling exceeded: peak %d > limit %d", peak, limit)
	}
}

func TestDispatcher_CancelledContextSettlesAllSubjects(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := Dispatcher[int, int]{
		Limit: 1,
		Classify: func(ctx context.Context, n int) (int, error) {
			return n, ctx.Err()
		},
		Logger: zerolog.Nop(),
	}

	outcomes := d.Run(ctx, []int{1, 2, 3})
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 settled outcomes, got %d", len(outcomes))
	}
	if len(Successes(outcomes)) != 0 {
		t.Fatalf("expected no successes after cancellation")
	}
}

func TestDispatcher_EmptySubjects(t *testing.T) {
	t.Parallel()

	d := Dispatcher[int, int]{
		Limit:    4,
		Classify: func(_ context.Context, n int) (int, error) { return n, nil },
		Logger:   zerolog.Nop(),
	}
	if got := d.Run(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty outcomes, got %#v", got)
	}
}
