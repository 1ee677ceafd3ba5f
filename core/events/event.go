// Package events defines the vault's domain events and the append-only log
// that is their authoritative external projection. External readers can
// reconstruct any user's position from this log alone, without touching raw
// state storage, so events must be emitted in exactly the order the core
// specifies and never for a call that ultimately fails.
package events

// Event represents a single domain-level state transition emitted by the
// vault.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. indexers,
// off-chain accounting).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Useful for
// callers (tests, dry-run tooling) that do not care about the event stream.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
