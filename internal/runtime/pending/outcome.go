package pending

import (
	"context"
	"encoding/json"
	"sync"
)

// Outcome is the tagged result delivered to a pending request: either a
// success value or a failure error, never both.
type Outcome struct {
	Value json.RawMessage
	Err   error
}

// Success wraps a host-provided result.
func Success(value json.RawMessage) Outcome {
	return Outcome{Value: value}
}

// Failure wraps an error that rejects the request.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

func (o Outcome) Failed() bool { return o.Err != nil }

// HostError carries a failure reported by the host application, normalized
// to a string.
type HostError struct {
	Message string
}

func (e *HostError) Error() string {
	return "host rejected request: " + e.Message
}

// Future is a one-shot completion handle. The first Complete wins; later
// calls are ignored.
type Future struct {
	id      string
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// ID returns the correlation id the future was registered under.
func (f *Future) ID() string { return f.id }

// Complete resolves the future. It reports whether this call delivered the outcome.
func (f *Future) Complete(outcome Outcome) bool {
	delivered := false
	f.once.Do(func() {
		f.outcome = outcome
		delivered = true
		close(f.done)
	})
	return delivered
}

// Done is closed once the future holds an outcome.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future completes or ctx is done. Returning on ctx
// does not remove the registry entry; a later push still completes it.
func (f *Future) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-f.done:
		return f.outcome.Value, f.outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
