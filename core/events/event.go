package events

import (
	"sync"

	"qststaking/core/types"
)

// Event represents a structured state change emitted by the staking program.
type Event interface {
	EventType() string
}

// Payload is implemented by events that can be converted into the canonical
// broadcast form.
type Payload interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. indexers, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// MultiEmitter fans a single event out to every configured emitter.
type MultiEmitter []Emitter

// Emit implements the Emitter interface.
func (m MultiEmitter) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Recorder buffers events until the surrounding invocation decides whether
// they should be published.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns the buffered events in emission order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Flush forwards every buffered event to dst and clears the buffer.
func (r *Recorder) Flush(dst Emitter) {
	if r == nil {
		return
	}
	r.mu.Lock()
	buffered := r.events
	r.events = nil
	r.mu.Unlock()
	if dst == nil {
		return
	}
	for _, evt := range buffered {
		dst.Emit(evt)
	}
}

// Reset drops any buffered events.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
