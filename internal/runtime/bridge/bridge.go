package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/drblury/hostbridge/internal/runtime/ids"
	"github.com/drblury/hostbridge/internal/runtime/pending"
	"github.com/drblury/hostbridge/internal/runtime/store"
)

// Bridge ties the correlation pieces together: ids come from the allocator,
// futures live in the registry, commands leave through the dispatcher and
// pushes come back through the router.
type Bridge struct {
	Allocator  *ids.Allocator
	Registry   *pending.Registry
	Store      *store.Store
	Dispatcher *Dispatcher
	Router     *Router

	// reserveMu makes allocate-then-register one step for concurrent callers.
	reserveMu sync.Mutex
}

// New assembles a Bridge from already constructed parts.
func New(allocator *ids.Allocator, registry *pending.Registry, st *store.Store, dispatcher *Dispatcher, router *Router) *Bridge {
	return &Bridge{
		Allocator:  allocator,
		Registry:   registry,
		Store:      st,
		Dispatcher: dispatcher,
		Router:     router,
	}
}

// Call sends a correlated command. It allocates a fresh id, registers a
// future under it, builds the payload with that id and dispatches it. When
// the send fails the entry is completed with the same error so nothing leaks.
func (b *Bridge) Call(ctx context.Context, cmd Command, build func(id string) any) (*pending.Future, error) {
	if err := b.Dispatcher.Ready(cmd); err != nil {
		return nil, err
	}

	fut, err := b.reserve()
	if err != nil {
		return nil, err
	}
	id := fut.ID()

	if err := b.Dispatcher.Send(ctx, cmd, build(id)); err != nil {
		b.Registry.Complete(id, pending.Failure(err))
		return nil, err
	}
	return fut, nil
}

// reserve allocates a free id and registers a future under it. Completions
// only ever free ids, so an id that is free while reserveMu is held stays
// free until it is registered.
func (b *Bridge) reserve() (*pending.Future, error) {
	b.reserveMu.Lock()
	defer b.reserveMu.Unlock()

	id, err := b.Allocator.Allocate("")
	if err != nil {
		return nil, err
	}
	fut, err := b.Registry.Expect(id)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", id, err)
	}
	return fut, nil
}

// Close fails every pending request with ErrRegistryClosed.
func (b *Bridge) Close() int {
	return b.Registry.Close()
}
