// Package family implements the per-object-category Extractor/Loader
// pairs (spec §4.5): saved objects, spaces, workflows, agents, and tools.
// Each adapter knows its own wire contract, sanitization rules, and
// upsert state machine; the orchestrator and pipeline kernel drive them
// through the Extractor/Loader interfaces defined here, grounded on the
// Tool/Registry shape in internal/tool/types.go.
package family

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/version"
)

// Extractor produces the records for one family within one space.
type Extractor interface {
	// List returns every key (id, or type/id for saved objects) the
	// extractor's source holds: the space's manifest for the disk side,
	// every object the Server lists for the HTTP-backed extractors.
	List(ctx context.Context) ([]string, error)
	// Get fetches and parses one record by key.
	Get(ctx context.Context, key string) (*codec.Object, error)
}

// Loader writes a fetched or edited record to its destination — either
// the Server (push) or disk (pull), depending on which adapter role is in
// play. Create/Update receive the sanitized record; Exists takes only the
// key.
type Loader interface {
	Exists(ctx context.Context, key string) (bool, error)
	Create(ctx context.Context, key string, record *codec.Object) error
	Update(ctx context.Context, key string, record *codec.Object) error
	Sanitize(record *codec.Object)
}

// Adapter bundles one family's Extractor and Loader for both directions
// along with the metadata the orchestrator needs for gating and reporting.
type Adapter struct {
	Family        version.Family
	PullExtractor Extractor // reads from the Server
	PullLoader    Loader    // writes to disk
	PushExtractor Extractor // reads from disk
	PushLoader    Loader    // writes to the Server
}

// Registry maps a Family to its Adapter, mirroring the
// interface+map+Register/Get shape used for tool registration.
type Registry struct {
	mu       sync.RWMutex
	adapters map[version.Family]*Adapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[version.Family]*Adapter)}
}

// Register adds an adapter, replacing any previous entry for the same
// family.
func (r *Registry) Register(a *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Family] = a
}

// Get returns the adapter for family, if registered.
func (r *Registry) Get(f version.Family) (*Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[f]
	return a, ok
}

// MustGet panics if family isn't registered — used at wiring sites where
// the caller has already validated the family against version.AllFamilies.
func (r *Registry) MustGet(f version.Family) *Adapter {
	a, ok := r.Get(f)
	if !ok {
		panic(fmt.Sprintf("family: no adapter registered for %q", f))
	}
	return a
}

// UpsertResult reports what the state machine actually did.
type UpsertResult int

const (
	UpsertCreated UpsertResult = iota
	UpsertUpdated
)

func (r UpsertResult) String() string {
	if r == UpsertCreated {
		return "created"
	}
	return "updated"
}

// Upsert drives the CHECK→CREATE/UPDATE state machine shared by every
// per-item family (workflows, agents, tools) per spec §4.5. 404/409 races
// are handled by falling through to the sibling branch exactly once;
// a second race in the same call is a genuine failure.
func Upsert(ctx context.Context, loader Loader, key string, record *codec.Object) (UpsertResult, error) {
	sanitized := record.Clone()
	loader.Sanitize(sanitized)

	exists, err := loader.Exists(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("checking existence of %s: %w", key, err)
	}

	if exists {
		if err := loader.Update(ctx, key, sanitized); err != nil {
			if IsRace(err) {
				if err := loader.Create(ctx, key, sanitized); err != nil {
					return 0, fmt.Errorf("creating %s after update raced with delete: %w", key, err)
				}
				return UpsertCreated, nil
			}
			return 0, fmt.Errorf("updating %s: %w", key, err)
		}
		return UpsertUpdated, nil
	}

	if err := loader.Create(ctx, key, sanitized); err != nil {
		if IsRace(err) {
			if err := loader.Update(ctx, key, sanitized); err != nil {
				return 0, fmt.Errorf("updating %s after create raced with concurrent create: %w", key, err)
			}
			return UpsertUpdated, nil
		}
		return 0, fmt.Errorf("creating %s: %w", key, err)
	}
	return UpsertCreated, nil
}

// raceError marks an error as the specific 404-on-update /
// 409-on-create race conditions the state machine tolerates once.
type raceError struct{ err error }

func (r *raceError) Error() string { return r.err.Error() }
func (r *raceError) Unwrap() error { return r.err }

// AsRace wraps err so Upsert falls through to the sibling branch.
func AsRace(err error) error {
	if err == nil {
		return nil
	}
	return &raceError{err: err}
}

// IsRace reports whether err was produced by AsRace.
func IsRace(err error) bool {
	var r *raceError
	return errors.As(err, &r)
}
