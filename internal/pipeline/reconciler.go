package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNotFound is the not-found signal a Store must return so the reconciler
// can tell "row missing" apart from other failures.
var ErrNotFound = errors.New("record not found")

// Store is the repository capability the reconciler writes through. Key is
// the natural identifier assigned by the external source.
type Store[T any] interface {
	FindByKey(ctx context.Context, key string) (T, error)
	Create(ctx context.Context, record T) error
	Update(ctx context.Context, key string, record T) error
}

// Keyed pairs a normalized record with its natural key.
type Keyed[T any] struct {
	Key    string
	Record T
}

// Plan partitions normalized records into updates and creates.
type Plan[T any] struct {
	ToUpdate []Keyed[T]
	ToCreate []Keyed[T]
}

// BuildPlan stages each incoming record for update when its natural key
// matches an existing record, otherwise for creation. The fetched snapshot
// is authoritative, so updates replace fields rather than merge.
func BuildPlan[T any](existing map[string]struct{}, incoming []Keyed[T]) Plan[T] {
	plan := Plan[T]{
		ToUpdate: make([]Keyed[T], 0, len(incoming)),
		ToCreate: make([]Keyed[T], 0, len(incoming)),
	}
	for _, item := range incoming {
		if _, ok := existing[item.Key]; ok {
			plan.ToUpdate = append(plan.ToUpdate, item)
		} else {
			plan.ToCreate = append(plan.ToCreate, item)
		}
	}
	return plan
}

// ApplyOptions tunes Apply. Validate, when set, is the minimum-field check
// applied before creation only: a record that cannot be analyzed or
// deduplicated later is dropped with a warning, while updates go through
// untouched.
type ApplyOptions[T any] struct {
	Validate func(T) error
	Logger   zerolog.Logger
}

// ApplyResult reports what Apply did. Skipped and Errors are reported to
// the pipeline boundary; silent data loss is never acceptable.
type ApplyResult struct {
	Created int
	Updated int
	Skipped int
	Errors  int
}

// Apply executes a plan against the store. Writes run sequentially; an
// individual record failure is logged and counted but never aborts the
// batch. Before creating, the store is re-checked by natural key to guard
// against concurrent runs racing on the same identifier: a create that
// collides is downgraded to an update, and an update whose row has vanished
// is retried once as a create.
func Apply[T any](ctx context.Context, store Store[T], plan Plan[T], opts ApplyOptions[T]) ApplyResult {
	var res ApplyResult

	for _, item := range plan.ToUpdate {
		if err := store.Update(ctx, item.Key, item.Record); err != nil {
			if errors.Is(err, ErrNotFound) {
				if createErr := store.Create(ctx, item.Record); createErr != nil {
					opts.Logger.Error().Err(createErr).Str("key", item.Key).
						Msg("create after missing update target failed")
					res.Errors++
					continue
				}
				res.Created++
				continue
			}
			opts.Logger.Error().Err(err).Str("key", item.Key).Msg("update failed")
			res.Errors++
			continue
		}
		res.Updated++
	}

	for _, item := range plan.ToCreate {
		if opts.Validate != nil {
			if err := opts.Validate(item.Record); err != nil {
				opts.Logger.Warn().Err(err).Str("key", item.Key).
					Msg("dropping record that fails minimum-field validation")
				res.Skipped++
				continue
			}
		}

		if _, err := store.FindByKey(ctx, item.Key); err == nil {
			if updateErr := store.Update(ctx, item.Key, item.Record); updateErr != nil {
				opts.Logger.Error().Err(updateErr).Str("key", item.Key).
					Msg("update of concurrently created record failed")
				res.Errors++
				continue
			}
			res.Updated++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			opts.Logger.Error().Err(err).Str("key", item.Key).Msg("existence re-check failed")
			res.Errors++
			continue
		}

		if err := store.Create(ctx, item.Record); err != nil {
			// A racing run may have won the unique-key insert between the
			// re-check and the create; retry once as an update.
			if _, findErr := store.FindByKey(ctx, item.Key); findErr == nil {
				if updateErr := store.Update(ctx, item.Key, item.Record); updateErr != nil {
					opts.Logger.Error().Err(updateErr).Str("key", item.Key).
						Msg("update after create collision failed")
					res.Errors++
					continue
				}
				res.Updated++
				continue
			}
			opts.Logger.Error().Err(err).Str("key", item.Key).Msg("create failed")
			res.Errors++
			continue
		}
		res.Created++
	}

	return res
}
