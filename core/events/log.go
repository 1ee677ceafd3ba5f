package events

import (
	"sync"

	"github.com/IHB1-Foundation/magni-cspr/core/types"
)

// Log is an append-only, in-order sequence of domain events. It is the
// authoritative external view of the vault's state transitions: a correct
// implementation never appends for a call that ultimately fails, and never
// reorders relative to the call sequence that produced the events.
//
// Log implements Emitter so it can be wired directly into the vault engine.
type Log struct {
	mu      sync.Mutex
	records []*types.Event
}

// NewLog constructs an empty event log.
func NewLog() *Log {
	return &Log{}
}

// Emit appends the wire form of the event to the log. Implements Emitter.
func (l *Log) Emit(e Event) {
	if l == nil || e == nil {
		return
	}
	wire, ok := e.(wireEvent)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, wire.Event())
}

// wireEvent is implemented by every concrete event struct in this package;
// it is not exported because callers should depend on the Event interface,
// not on the wire conversion directly.
type wireEvent interface {
	Event() *types.Event
}

// All returns a defensive copy of every record appended so far, in emission
// order.
func (l *Log) All() []*types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*types.Event, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// TypesInOrder returns only the Type field of each record, in emission
// order — convenient for tests asserting on exact event ordering without
// constructing full attribute maps.
func (l *Log) TypesInOrder() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Type
	}
	return out
}
