package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores events in memory, organised by SearchID, for
// inspection during tests or interactive debugging. Safe for concurrent
// use.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends event to its search's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.SearchID] = append(b.events[event.SearchID], event)
}

// EmitBatch appends every event in order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		b.Emit(e)
	}
	return nil
}

// Flush is a no-op: BufferedEmitter has nothing to send elsewhere.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of the events recorded for searchID, in emission
// order. Returns an empty (non-nil) slice if none were recorded.
func (b *BufferedEmitter) History(searchID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[searchID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Clear discards history for searchID, or every search if searchID is "".
func (b *BufferedEmitter) Clear(searchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if searchID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, searchID)
}
