package ids

import (
	"strconv"
	"sync/atomic"

	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
)

const (
	defaultMaxAttempts = 8
	collisionMarker    = "1"
)

// PendingChecker reports whether an id is currently held by an in-flight request.
type PendingChecker interface {
	HasPending(id string) bool
}

// AllocatorOption customises an Allocator.
type AllocatorOption func(*Allocator)

// WithTokenSource replaces the random token source used when no seed is given.
func WithTokenSource(source func() string) AllocatorOption {
	return func(a *Allocator) {
		if source != nil {
			a.newToken = source
		}
	}
}

// WithMaxAttempts bounds the number of marker-suffixed retries before the
// allocator switches to the counter fallback.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// Allocator hands out correlation ids that are free in the pending registry
// at allocation time. Ids are reused once their request completes, so they are
// not unique over the lifetime of the process.
type Allocator struct {
	pending     PendingChecker
	newToken    func() string
	maxAttempts int
	counter     atomic.Uint64
}

// NewAllocator creates an allocator that checks collisions against pending.
func NewAllocator(pending PendingChecker, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		pending:     pending,
		newToken:    NewToken,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a free id derived from seed, or from a fresh random token
// when seed is empty. A colliding id gets the collision marker appended, up to
// the attempt bound; after that a strictly increasing counter suffix is used
// so adversarial seeds cannot loop forever.
func (a *Allocator) Allocate(seed string) (string, error) {
	id := seed
	if id == "" {
		id = a.newToken()
	}
	if id == "" {
		return "", errspkg.ErrIDGeneration
	}

	base := id
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if !a.isPending(id) {
			return id, nil
		}
		id += collisionMarker
	}

	for {
		id = base + "-" + strconv.FormatUint(a.counter.Add(1), 10)
		if !a.isPending(id) {
			return id, nil
		}
	}
}

func (a *Allocator) isPending(id string) bool {
	if a.pending == nil {
		return false
	}
	return a.pending.HasPending(id)
}
