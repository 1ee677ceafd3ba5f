package delegation

import (
	"sync"

	"github.com/google/uuid"

	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// Ticket is the opaque settlement handle RequestOutbound hands back to the
// vault engine. Liquid tickets settle inline; unbonding tickets require one
// or more later TrySettle attempts via finalize_withdraw.
type Ticket struct {
	ID     string
	Liquid bool
	Amount fixedpoint.Motes
}

// Adapter implements the pooled-delegation batching policy (§4.4) on top of
// a HostChain. It is the sole owner of pending_to_delegate; no other
// component reads or writes it.
type Adapter struct {
	mu                sync.Mutex
	host              HostChain
	validator         func() string
	pendingToDelegate fixedpoint.Motes
}

// New constructs an Adapter. validator is a thunk rather than a fixed string
// so that admin.Control.SetValidator changes are observed by the adapter
// without requiring the adapter to be reconstructed.
func New(host HostChain, validator func() string) *Adapter {
	return &Adapter{
		host:              host,
		validator:         validator,
		pendingToDelegate: fixedpoint.ZeroMotes(),
	}
}

// PendingToDelegate returns the amount of liquid BASE awaiting the next
// batch delegation.
func (a *Adapter) PendingToDelegate() fixedpoint.Motes {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingToDelegate
}

// RecordInbound accounts for a newly deposited amount, crediting the host's
// liquid balance and then batching into a delegation once the threshold is
// crossed.
func (a *Adapter) RecordInbound(amount fixedpoint.Motes, emitter events.Emitter) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.host.CreditInbound(amount)

	sum, err := a.pendingToDelegate.Add(amount)
	if err != nil {
		return err
	}
	a.pendingToDelegate = sum

	if a.pendingToDelegate.Cmp(fixedpoint.NewMotesFromUint64(fixedpoint.MinDepositMotes)) >= 0 {
		toDelegate := a.pendingToDelegate
		if err := a.host.Delegate(a.validator(), toDelegate); err != nil {
			return err
		}
		a.pendingToDelegate = fixedpoint.ZeroMotes()
		if emitter != nil {
			emitter.Emit(events.DelegationBatched{AmountMotes: toDelegate})
		}
	}
	return nil
}

// RequestOutbound decides whether amount can settle immediately from the
// host's liquid reserves, or whether a shortfall must be undelegated from
// the validator first. pending_to_delegate is never added on top of
// LiquidBalance: CreditInbound already folded every deposit into the host's
// liquid balance, so pending_to_delegate names a subset of it awaiting batch
// delegation, not additional money. reserveFromPending only adjusts that
// bookkeeping so the next delegation batch doesn't try to re-delegate motes
// this request already claimed.
func (a *Adapter) RequestOutbound(amount fixedpoint.Motes, emitter events.Emitter) (Ticket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	available := a.host.LiquidBalance()

	if available.Cmp(amount) >= 0 {
		if _, err := a.reserveFromPending(amount); err != nil {
			return Ticket{}, err
		}
		return Ticket{ID: uuid.NewString(), Liquid: true, Amount: amount}, nil
	}

	shortfall, err := amount.Sub(available)
	if err != nil {
		return Ticket{}, err
	}
	if err := a.host.Undelegate(a.validator(), shortfall); err != nil {
		return Ticket{}, err
	}
	if emitter != nil {
		emitter.Emit(events.UndelegationRequested{AmountMotes: shortfall})
	}
	return Ticket{ID: uuid.NewString(), Liquid: false, Amount: amount}, nil
}

// reserveFromPending decrements pending_to_delegate by up to amount,
// reporting how much of amount was drawn from pending (the remainder comes
// from the host's liquid balance at settlement time).
func (a *Adapter) reserveFromPending(amount fixedpoint.Motes) (fixedpoint.Motes, error) {
	if a.pendingToDelegate.IsZero() {
		return fixedpoint.ZeroMotes(), nil
	}
	drawn := a.pendingToDelegate
	if drawn.Cmp(amount) > 0 {
		drawn = amount
	}
	remaining, err := a.pendingToDelegate.Sub(drawn)
	if err != nil {
		return fixedpoint.Motes{}, err
	}
	a.pendingToDelegate = remaining
	return drawn, nil
}

// TrySettle attempts to pay amount to recipient for the given ticket. A
// liquid ticket always succeeds (the motes were already reserved at
// RequestOutbound time); an unbonding ticket succeeds only once the host
// reports enough liquidity, and otherwise fails with
// vaulterrors.ErrUnbondingNotComplete without mutating any state.
func (a *Adapter) TrySettle(ticket Ticket, recipient crypto.Address, amount fixedpoint.Motes) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !ticket.Liquid && a.host.LiquidBalance().Cmp(amount) < 0 {
		return vaulterrors.ErrUnbondingNotComplete
	}
	return a.host.TransferTo(recipient, amount)
}
