package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Outcome pairs a subject with either its classification result or the
// error that excluded it. The pairing holds regardless of completion order.
type Outcome[S, R any] struct {
	Subject S
	Result  R
	Err     error
}

// Dispatcher runs an external classification call per subject with at most
// Limit calls in flight. Each call is independently fault-isolated: a
// failure is logged with the subject's identifying content and excluded
// from the successes without cancelling siblings.
type Dispatcher[S, R any] struct {
	Classify func(ctx context.Context, subject S) (R, error)
	Limit    int64
	Describe func(subject S) string
	Logger   zerolog.Logger
}

// Run dispatches all subjects and waits for every call to settle. The
// returned slice is indexed like subjects.
func (d Dispatcher[S, R]) Run(ctx context.Context, subjects []S) []Outcome[S, R] {
	limit := d.Limit
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]Outcome[S, R], len(subjects))
	sem := semaphore.NewWeighted(limit)
	var wg sync.WaitGroup

	for i, subject := range subjects {
		outcomes[i].Subject = subject

		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, subject S) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := d.Classify(ctx, subject)
			if err != nil {
				outcomes[i].Err = err
				d.Logger.Warn().Err(err).Str("subject", d.describe(subject)).
					Msg("classification failed; subject excluded from results")
				return
			}
			outcomes[i].Result = result
		}(i, subject)
	}

	wg.Wait()
	return outcomes
}

func (d Dispatcher[S, R]) describe(subject S) string {
	if d.Describe == nil {
		return ""
	}
	return d.Describe(subject)
}

// Successes filters settled outcomes down to the ones that produced a
// result.
func Successes[S, R any](outcomes []Outcome[S, R]) []Outcome[S, R] {
	out := make([]Outcome[S, R], 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}
