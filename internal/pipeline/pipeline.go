// Package pipeline implements the generic three-stage
// Extractor/Transformer/Loader composition (spec §4.6): records flow from
// an Extractor through a list of pure Transformers to a Loader, with
// per-item stages mapped over a bounded concurrent worker pool sized to
// the HTTP client's semaphore capacity. The worker-pool shape here is
// grounded on internal/goal's task executor (a select-on-sem/WaitGroup
// loop), generalized from dependency-ordered tasks to an unordered item
// list since pipeline items carry no dependency relation to each other.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/p-blackswan/ksync/internal/apperrors"
)

// Transformer is a pure, synchronous mapping applied to every item
// in sequence before it reaches the Loader.
type Transformer[T any] func(T) (T, error)

// Result is the outcome of running a pipeline: how many records the
// Loader wrote, and every per-item failure collected along the way.
type Result struct {
	Written int
	Errors  []error
}

// Err returns a combined error if any item failed, else nil (spec §4.6:
// "the overall pipeline result is Err if any item failed").
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("pipeline: %d item(s) failed: %w", len(r.Errors), r.Errors[0])
}

// Run fans keys out across a worker pool of size concurrency, applying
// fetch then every transform in order, then load. One item's failure is
// recorded and does not cancel its siblings; external cancellation via
// ctx stops new items from starting while in-flight ones finish (spec
// §4.6, §5).
func Run[T any](
	ctx context.Context,
	space, familyName string,
	keys []string,
	concurrency int,
	fetch func(context.Context, string) (T, error),
	transforms []Transformer[T],
	load func(context.Context, string, T) error,
) Result {
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	result := Result{}

	for _, key := range keys {
		key := key

		if ctx.Err() != nil {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("key %q: %w", key, ctx.Err()))
			mu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("key %q: %w", key, ctx.Err()))
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := runOne(ctx, key, fetch, transforms, load); err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, &apperrors.ItemError{Space: space, Family: familyName, ID: key, Err: err})
				mu.Unlock()
				return
			}
			mu.Lock()
			result.Written++
			mu.Unlock()
		}()
	}
	wg.Wait()

	return result
}

func runOne[T any](
	ctx context.Context,
	key string,
	fetch func(context.Context, string) (T, error),
	transforms []Transformer[T],
	load func(context.Context, string, T) error,
) error {
	item, err := fetch(ctx, key)
	if err != nil {
		return fmt.Errorf("fetching %q: %w", key, err)
	}
	for _, t := range transforms {
		item, err = t(item)
		if err != nil {
			return fmt.Errorf("transforming %q: %w", key, err)
		}
	}
	if err := load(ctx, key, item); err != nil {
		return fmt.Errorf("loading %q: %w", key, err)
	}
	return nil
}
