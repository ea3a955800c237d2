// Package orchestrator wires the codec, family, and pipeline layers into
// the command surface consumed by the external CLI collaborator (spec
// §4.7): auth, pull, push, add, migrate (space-definition fetch only),
// and togo (record enumeration only). It owns preflight gating, push-floor
// enforcement, per-space fan-out, and the exit-status policy; everything
// else — argument parsing, bundle writing, legacy-layout migration — stays
// outside the core per spec §1.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

// Orchestrator drives every command against one connected Client and one
// on-disk project root.
type Orchestrator struct {
	client      *httpclient.Client
	root        string
	concurrency int
	logger      zerolog.Logger
}

// New returns an Orchestrator bound to an already-connected client. Per-
// item pipeline concurrency is sized to the same bound as the client's
// HTTP semaphore (spec §5: "the semaphore, not a separate limit, is the
// backpressure source" — pipeline concurrency never exceeds it, so the
// worker pool never blocks waiting on a permit it could never get).
func New(client *httpclient.Client, root string, concurrency int, logger zerolog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{
		client:      client,
		root:        root,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
	}
}

// AuthResult is the outcome of auth(): the probed version, and a
// best-effort friendly confirmation of the default space's display name.
type AuthResult struct {
	Version          version.ServerVersion
	DefaultSpaceName string
}

// Auth runs the version probe only (spec §4.7). The probe itself already
// happened during httpclient.Connect; Auth reports it back and makes one
// best-effort confirmation call that never fails the command.
func (o *Orchestrator) Auth(ctx context.Context) AuthResult {
	result := AuthResult{Version: o.client.Version()}

	sp, err := o.client.Space(manifest.DefaultSpaceID)
	if err != nil {
		o.logger.Warn().Err(err).Msg("default space not registered, skipping friendly confirmation")
		return result
	}
	obj, err := pullSpaceDefinition(ctx, sp)
	if err != nil {
		o.logger.Warn().Err(err).Msg("could not confirm default space definition")
		return result
	}
	if name, ok := obj.Get("name"); ok {
		if s, ok := name.(string); ok {
			result.DefaultSpaceName = s
		}
	}
	return result
}

// resolveSpaces intersects the registry with an optional --space filter.
// An empty filter means every registered space. Unknown requested IDs are
// errors (spec §4.7: "unknown IDs are errors").
func (o *Orchestrator) resolveSpaces(filter []string) ([]string, error) {
	registry := o.client.Registry()
	if len(filter) == 0 {
		return registry.IDs(), nil
	}
	ids := make([]string, 0, len(filter))
	for _, id := range filter {
		if !registry.Has(id) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownSpace, id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveFamilies defaults to every known family when filter is empty.
func resolveFamilies(filter []version.Family) []version.Family {
	if len(filter) == 0 {
		return version.AllFamilies
	}
	return filter
}

// gate is the shared preflight decision for one (family) against the
// detected version: attempt, skip-with-warning, or attempt-with-forced-
// warning (spec §4.7).
type gateDecision int

const (
	gateAttempt gateDecision = iota
	gateSkip
	gateForced
)

func (o *Orchestrator) gate(family version.Family, force bool) gateDecision {
	if o.client.Supports(family) {
		return gateAttempt
	}
	if force {
		return gateForced
	}
	return gateSkip
}

// fanOutSpaces runs fn concurrently for every space, collecting a Summary
// per space and merging them. Concurrency across spaces is unbounded at
// this layer — the shared HTTP semaphore inside the client is the actual
// backpressure source (spec §5).
func fanOutSpaces(spaces []string, fn func(spaceID string) *Summary) *Summary {
	var wg sync.WaitGroup
	var mu sync.Mutex
	merged := &Summary{}

	for _, spaceID := range spaces {
		spaceID := spaceID
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := fn(spaceID)
			mu.Lock()
			defer mu.Unlock()
			merged.Written += result.Written
			merged.Skipped = append(merged.Skipped, result.Skipped...)
			merged.ForcedWarnings = append(merged.ForcedWarnings, result.ForcedWarnings...)
			merged.ItemErrors = append(merged.ItemErrors, result.ItemErrors...)
		}()
	}
	wg.Wait()
	return merged
}
