// Package delegation abstracts the host chain's delegation primitives and
// implements the pooled-delegation batching policy on top of them (§4.4).
// The vault core never talks to the host directly; it only ever calls
// through the Adapter, which is the only component that owns
// pending_to_delegate and the delegation bookkeeping.
package delegation

import (
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// HostChain is the subset of host-chain operations the delegation adapter
// consumes. A real deployment backs this with the smart-contract host's
// staking syscalls; tests and the demo harness back it with SimHost.
type HostChain interface {
	// CreditInbound models the host crediting the vault's own liquid
	// balance with a deposit's attached value, before the adapter decides
	// how much of it to delegate.
	CreditInbound(amount fixedpoint.Motes)
	// TransferTo moves motes from the vault's own liquid balance to addr.
	TransferTo(addr crypto.Address, amount fixedpoint.Motes) error
	// Delegate moves motes from the vault's liquid balance into a
	// delegation to validator.
	Delegate(validator string, amount fixedpoint.Motes) error
	// Undelegate requests undelegation of amount from validator. The
	// motes become liquid only after a host-defined unbonding delay that
	// this interface does not model directly.
	Undelegate(validator string, amount fixedpoint.Motes) error
	// DelegatedAmount reports the amount currently delegated to validator.
	DelegatedAmount(validator string) fixedpoint.Motes
	// LiquidBalance reports the vault's own un-delegated balance.
	LiquidBalance() fixedpoint.Motes
	// Now returns the host's monotonic wall clock, in seconds.
	Now() uint64
}
