package delegation

import (
	"sync"

	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// SimHost is an in-memory HostChain used by the vault's own test suite and
// the demo harness. It models unbonding explicitly: Undelegate moves motes
// into a pending-unbond pool that only SettleUnbonding (a test-only control
// method, not part of HostChain) releases into the liquid balance, letting
// tests exercise both the "liquid" and "unbonding" settlement paths of
// finalize_withdraw deterministically.
type SimHost struct {
	mu            sync.Mutex
	liquid        fixedpoint.Motes
	delegated     map[string]fixedpoint.Motes
	pendingUnbond fixedpoint.Motes
	now           uint64
}

// NewSimHost constructs a SimHost starting at wall-clock time startTS.
func NewSimHost(startTS uint64) *SimHost {
	return &SimHost{
		liquid:    fixedpoint.ZeroMotes(),
		delegated: make(map[string]fixedpoint.Motes),
		now:       startTS,
	}
}

// CreditInbound implements HostChain.
func (s *SimHost) CreditInbound(amount fixedpoint.Motes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, err := s.liquid.Add(amount)
	if err != nil {
		panic(err)
	}
	s.liquid = sum
}

// TransferTo implements HostChain.
func (s *SimHost) TransferTo(_ crypto.Address, amount fixedpoint.Motes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, err := s.liquid.Sub(amount)
	if err != nil {
		return err
	}
	s.liquid = remaining
	return nil
}

// Delegate implements HostChain.
func (s *SimHost) Delegate(validator string, amount fixedpoint.Motes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, err := s.liquid.Sub(amount)
	if err != nil {
		return err
	}
	current := s.delegated[validator]
	updated, err := current.Add(amount)
	if err != nil {
		return err
	}
	s.liquid = remaining
	s.delegated[validator] = updated
	return nil
}

// Undelegate implements HostChain. The amount leaves the delegated total
// immediately (matching most PoS host semantics) but only becomes liquid
// once SettleUnbonding is called.
func (s *SimHost) Undelegate(validator string, amount fixedpoint.Motes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.delegated[validator]
	remaining, err := current.Sub(amount)
	if err != nil {
		return err
	}
	pending, err := s.pendingUnbond.Add(amount)
	if err != nil {
		return err
	}
	s.delegated[validator] = remaining
	s.pendingUnbond = pending
	return nil
}

// DelegatedAmount implements HostChain.
func (s *SimHost) DelegatedAmount(validator string) fixedpoint.Motes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delegated[validator]
}

// LiquidBalance implements HostChain.
func (s *SimHost) LiquidBalance() fixedpoint.Motes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liquid
}

// Now implements HostChain.
func (s *SimHost) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AdvanceTime moves the simulated wall clock forward by seconds.
func (s *SimHost) AdvanceTime(seconds uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += seconds
}

// SettleUnbonding releases amount from the pending-unbond pool into the
// liquid balance, simulating the host-defined unbonding delay elapsing.
// Not part of HostChain: only a test/demo control hook.
func (s *SimHost) SettleUnbonding(amount fixedpoint.Motes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, err := s.pendingUnbond.Sub(amount)
	if err != nil {
		return err
	}
	liquid, err := s.liquid.Add(amount)
	if err != nil {
		return err
	}
	s.pendingUnbond = remaining
	s.liquid = liquid
	return nil
}
