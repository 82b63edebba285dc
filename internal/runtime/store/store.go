package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
)

// Subscriber receives the value pushed to a channel.
type Subscriber func(value json.RawMessage)

// TxOutcome is the recorded result of a completed correlated request. Exactly
// one of Tx and Error is set.
type TxOutcome struct {
	Tx    json.RawMessage `json:"tx"`
	Error *string         `json:"error"`
}

// Succeeded builds an outcome carrying a host result.
func Succeeded(tx json.RawMessage) TxOutcome {
	return TxOutcome{Tx: tx}
}

// Failed builds an outcome carrying a normalized host error.
func Failed(msg string) TxOutcome {
	return TxOutcome{Error: &msg}
}

type subscription struct {
	id uint64
	fn Subscriber
}

// Store holds the last value pushed per channel, the subscribers of each
// channel and the append-only outcome mappings of result channels.
type Store struct {
	mu       sync.RWMutex
	values   map[string]json.RawMessage
	subs     map[string][]subscription
	outcomes map[string]map[string]TxOutcome
	nextID   uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]json.RawMessage),
		subs:     make(map[string][]subscription),
		outcomes: make(map[string]map[string]TxOutcome),
	}
}

// Set overwrites the slot for channel and notifies its subscribers.
func (s *Store) Set(channel string, value json.RawMessage) {
	stored := cloneRaw(value)

	s.mu.Lock()
	s.values[channel] = stored
	subs := s.snapshot(channel)
	s.mu.Unlock()

	notify(subs, stored)
}

// GetCurrent returns the last value pushed to channel. The boolean is false
// until the first push.
func (s *Store) GetCurrent(channel string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[channel]
	if !ok {
		return nil, false
	}
	return cloneRaw(v), true
}

// Subscribe registers fn for future pushes on channel. Each call adds an
// independent subscription. The returned func removes it and is safe to call
// more than once.
func (s *Store) Subscribe(channel string, fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[channel] = append(s.subs[channel], subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(channel, id) })
	}
}

// Subscribers returns the number of live subscriptions on channel.
func (s *Store) Subscribers(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[channel])
}

// RecordOutcome adds id to the outcome mapping of channel, stores the whole
// mapping as the channel value and notifies subscribers with it.
func (s *Store) RecordOutcome(channel, id string, outcome TxOutcome) error {
	s.mu.Lock()
	mapping, ok := s.outcomes[channel]
	if !ok {
		mapping = make(map[string]TxOutcome)
		s.outcomes[channel] = mapping
	}
	mapping[id] = outcome
	encoded, err := jsoncodec.Marshal(mapping)
	if err != nil {
		delete(mapping, id)
		s.mu.Unlock()
		return fmt.Errorf("encode outcomes for %s: %w", channel, err)
	}
	s.values[channel] = encoded
	subs := s.snapshot(channel)
	s.mu.Unlock()

	notify(subs, encoded)
	return nil
}

// Outcomes returns a copy of the outcome mapping recorded for channel.
func (s *Store) Outcomes(channel string) map[string]TxOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.outcomes[channel])
}

// Outcome looks up a single recorded outcome.
func (s *Store) Outcome(channel, id string) (TxOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[channel][id]
	return o, ok
}

func (s *Store) snapshot(channel string) []subscription {
	return append([]subscription(nil), s.subs[channel]...)
}

func (s *Store) remove(channel string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[channel]
	for i, sub := range subs {
		if sub.id == id {
			s.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subs[channel]) == 0 {
		delete(s.subs, channel)
	}
}

func notify(subs []subscription, value json.RawMessage) {
	for _, sub := range subs {
		sub.fn(cloneRaw(value))
	}
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}
