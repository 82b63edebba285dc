package pending

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
)

// Option customises a Registry.
type Option func(*Registry)

// WithTimeout fails requests that are still pending after d. Zero disables
// the timeout, which leaves unanswered requests pending until Close.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithObserver is notified with the number of pending entries after each change.
func WithObserver(observe func(pending int)) Option {
	return func(r *Registry) {
		r.observe = observe
	}
}

type entry struct {
	onSuccess func(json.RawMessage)
	onFailure func(error)
	timer     *time.Timer
}

// Registry tracks in-flight correlated requests by id. Every registered entry
// is completed at most once and removed before its callback runs.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	timeout time.Duration
	observe func(pending int)
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores the completion pair for id. Either callback may be nil when
// the caller does not care about that branch. Registering an id that is
// already pending is a programming error: ids must come from the Allocator.
func (r *Registry) Register(id string, onSuccess func(json.RawMessage), onFailure func(error)) error {
	if id == "" {
		return errspkg.ErrIDGeneration
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errspkg.ErrRegistryClosed
	}
	if _, ok := r.entries[id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", errspkg.ErrDuplicateID, id)
	}
	e := &entry{onSuccess: onSuccess, onFailure: onFailure}
	if r.timeout > 0 {
		e.timer = time.AfterFunc(r.timeout, func() {
			r.complete(id, e, Failure(errspkg.ErrRequestTimeout), nil)
		})
	}
	r.entries[id] = e
	n := len(r.entries)
	r.mu.Unlock()

	r.notify(n)
	return nil
}

// Expect registers id and returns a Future completed by the matching push.
func (r *Registry) Expect(id string) (*Future, error) {
	f := newFuture(id)
	err := r.Register(id,
		func(v json.RawMessage) { f.Complete(Success(v)) },
		func(err error) { f.Complete(Failure(err)) },
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Complete delivers outcome to the request registered under id and removes
// it. Unknown ids are ignored; the return value reports whether anything
// was completed.
func (r *Registry) Complete(id string, outcome Outcome) bool {
	return r.complete(id, nil, outcome, nil)
}

// CompleteAfter behaves like Complete but runs before once the entry is
// removed and before the outcome reaches the waiting caller. State the
// caller reads after its Future resolves is written in before.
func (r *Registry) CompleteAfter(id string, outcome Outcome, before func()) bool {
	return r.complete(id, nil, outcome, before)
}

// complete removes id when it is pending. A non-nil want restricts the
// completion to that exact entry so a stale timer cannot fail a reused id.
func (r *Registry) complete(id string, want *entry, outcome Outcome, before func()) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || (want != nil && e != want) {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, id)
	n := len(r.entries)
	r.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	}
	r.notify(n)
	if before != nil {
		before()
	}
	e.deliver(outcome)
	return true
}

// HasPending reports whether id is currently registered.
func (r *Registry) HasPending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of pending requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close rejects every pending request with ErrRegistryClosed and refuses
// further registrations. It returns the number of drained entries.
func (r *Registry) Close() int {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	r.closed = true
	drained := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	r.notify(0)
	for _, e := range drained {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.deliver(Failure(errspkg.ErrRegistryClosed))
	}
	return len(drained)
}

func (r *Registry) notify(n int) {
	if r.observe != nil {
		r.observe(n)
	}
}

func (e *entry) deliver(outcome Outcome) {
	if outcome.Failed() {
		if e.onFailure != nil {
			e.onFailure(outcome.Err)
		}
		return
	}
	if e.onSuccess != nil {
		e.onSuccess(outcome.Value)
	}
}
