// Package vault implements the core collateral/debt engine: the per-user
// position ledger, the deposit/borrow/repay/withdraw state machine, LTV
// invariant enforcement, and the event/error semantics every entrypoint
// commits to. It is the largest single component of this repository; every
// other package (fixedpoint, interest, token, delegation, admin, events)
// exists to be consumed from here.
package vault

import (
	"math"

	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/delegation"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// Status is a per-user position's lifecycle state.
type Status uint8

const (
	// StatusNone means no position has ever been opened, or it has been
	// fully wound down (zero collateral and zero debt).
	StatusNone Status = iota
	// StatusActive means the position holds collateral and/or debt and has
	// no withdrawal in flight.
	StatusActive
	// StatusWithdrawing means a request_withdraw has been accepted but not
	// yet finalized; most other state-mutating entrypoints reject while a
	// position is in this state.
	StatusWithdrawing
)

// String renders the status the way event attributes and logs want it.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusActive:
		return "active"
	case StatusWithdrawing:
		return "withdrawing"
	default:
		return "unknown"
	}
}

// Position is one user's collateral/debt/withdrawal state. The zero value
// (as returned for a user who has never deposited) is a valid StatusNone
// position with everything else at its zero value.
type Position struct {
	CollateralMotes      fixedpoint.Motes
	DebtPrincipal        fixedpoint.Wad
	LastAccrualTS        uint64
	PendingWithdrawMotes fixedpoint.Motes
	PendingTicket        delegation.Ticket
	Status               Status
}

// zeroPosition returns the default position for a user with no stored
// record: every amount at its zero value, status None.
func zeroPosition() Position {
	return Position{
		CollateralMotes:      fixedpoint.ZeroMotes(),
		DebtPrincipal:        fixedpoint.ZeroWad(),
		PendingWithdrawMotes: fixedpoint.ZeroMotes(),
		Status:               StatusNone,
	}
}

// Globals are the two protocol-wide scalars every position's writes must
// keep in lockstep with: their sums across all positions.
type Globals struct {
	TotalCollateral    fixedpoint.Motes
	TotalDebtPrincipal fixedpoint.Wad
}

func zeroGlobals() Globals {
	return Globals{TotalCollateral: fixedpoint.ZeroMotes(), TotalDebtPrincipal: fixedpoint.ZeroWad()}
}

// PositionInfo is the read-model returned by GetPosition: the raw fields
// plus the derived ltv_bps and health_factor a client would otherwise have
// to recompute itself.
type PositionInfo struct {
	CollateralMotes      fixedpoint.Motes
	CollateralWad        fixedpoint.Wad
	DebtWad              fixedpoint.Wad
	LtvBps               uint64
	HealthFactor         uint64
	PendingWithdrawMotes fixedpoint.Motes
	Status               Status
}

// HealthFactorSentinel is returned as the health factor for a position with
// zero debt: an honest "infinite" reading rather than a division by zero or
// a misleadingly low value.
const HealthFactorSentinel = math.MaxUint64

// Store is the persistence boundary the engine depends on. A real
// deployment backs this with the host chain's own key-value storage; tests
// and the demo harness back it with MemoryStore.
type Store interface {
	// GetPosition returns the stored position for user, or a zero-value
	// StatusNone position (and a nil error) if none has ever been written.
	GetPosition(user crypto.Address) (Position, error)
	PutPosition(user crypto.Address, pos Position) error
	GetGlobals() (Globals, error)
	PutGlobals(g Globals) error
	// IsInitialized reports whether MarkInitialized has already been
	// called against this store, guarding against double-initializing a
	// vault the way a smart-contract host guards against re-running init.
	IsInitialized() (bool, error)
	MarkInitialized() error
}

// DelegationAdapter is the subset of delegation.Adapter's surface the
// engine consumes. Declaring it as an interface here (rather than importing
// *delegation.Adapter directly) keeps the engine's test suite free to supply
// a fake that exercises failure paths the real adapter cannot easily be
// driven into.
type DelegationAdapter interface {
	RecordInbound(amount fixedpoint.Motes, emitter events.Emitter) error
	RequestOutbound(amount fixedpoint.Motes, emitter events.Emitter) (delegation.Ticket, error)
	TrySettle(ticket delegation.Ticket, recipient crypto.Address, amount fixedpoint.Motes) error
}

// Clock supplies the monotonic, second-granularity wall clock interest
// accrual reads. Kept separate from DelegationAdapter/HostChain so the
// engine does not need to know which component ultimately owns the host's
// time source.
type Clock interface {
	Now() uint64
}
