// Package token defines the DebtToken external interface the vault core
// consumes (§4.3) and a reference in-memory implementation used by the
// vault's own test suite and the demo harness. Production deployments are
// expected to point the vault at a real CEP-18-style contract instead; the
// vault core only ever talks to the DebtToken interface below.
package token

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// ErrInsufficientAllowance is returned by TransferFrom when the spender's
// allowance from owner is smaller than the requested amount.
var ErrInsufficientAllowance = errors.New("token: insufficient allowance")

// ErrInsufficientBalance is returned when a transfer would drive a balance
// negative.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

// ErrUnauthorizedMinter is returned by Mint/Burn when the caller is not the
// configured minter (the vault).
var ErrUnauthorizedMinter = errors.New("token: caller is not the authorized minter")

// ErrThrottled is returned when a caller exceeds the token's mutation rate
// limit; a well-behaved client retries after a short backoff.
var ErrThrottled = errors.New("token: rate limited, retry shortly")

// DebtToken is the exact surface the vault core consumes. Only the vault
// (the configured minter) may call Mint or Burn; TransferFrom debits
// allowance and fails with ErrInsufficientAllowance if the spender has not
// been approved for at least amount.
type DebtToken interface {
	BalanceOf(addr crypto.Address) fixedpoint.Wad
	TotalSupply() fixedpoint.Wad
	Allowance(owner, spender crypto.Address) fixedpoint.Wad
	Approve(owner, spender crypto.Address, amount fixedpoint.Wad) error
	TransferFrom(spender, owner, to crypto.Address, amount fixedpoint.Wad) error
	Mint(caller, to crypto.Address, amount fixedpoint.Wad) error
	Burn(caller, from crypto.Address, amount fixedpoint.Wad) error
}

// InMemory is a reference DebtToken implementation backed by Go maps. It is
// not meant for production use (no persistence), only for exercising the
// vault core's consumption of the interface in tests and the demo harness.
type InMemory struct {
	mu          sync.Mutex
	minter      crypto.Address
	balances    map[string]fixedpoint.Wad
	allowances  map[string]map[string]fixedpoint.Wad
	totalSupply fixedpoint.Wad
	limiter     *rate.Limiter
}

// NewInMemory constructs an InMemory DebtToken with the given vault address
// configured as the sole minter/burner, matching §4.3's "configured once at
// init" requirement. The mutation rate limit is generous by default so it
// never interferes with correct usage; it exists to bound abusive call
// volume against the reference ledger, not to gate normal vault traffic.
func NewInMemory(minter crypto.Address) *InMemory {
	return &InMemory{
		minter:      minter,
		balances:    make(map[string]fixedpoint.Wad),
		allowances:  make(map[string]map[string]fixedpoint.Wad),
		totalSupply: fixedpoint.ZeroWad(),
		limiter:     rate.NewLimiter(rate.Limit(10_000), 10_000),
	}
}

func key(addr crypto.Address) string { return string(addr.Bytes()) }

func (t *InMemory) balanceLocked(addr crypto.Address) fixedpoint.Wad {
	if b, ok := t.balances[key(addr)]; ok {
		return b
	}
	return fixedpoint.ZeroWad()
}

// BalanceOf returns the caller's current balance.
func (t *InMemory) BalanceOf(addr crypto.Address) fixedpoint.Wad {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceLocked(addr)
}

// TotalSupply returns the current outstanding supply.
func (t *InMemory) TotalSupply() fixedpoint.Wad {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply
}

// Allowance returns the amount spender may pull from owner via TransferFrom.
func (t *InMemory) Allowance(owner, spender crypto.Address) fixedpoint.Wad {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.allowances[key(owner)]; ok {
		if a, ok := m[key(spender)]; ok {
			return a
		}
	}
	return fixedpoint.ZeroWad()
}

// Approve sets the allowance spender may draw from owner. Called by the
// user directly, from outside the vault core.
func (t *InMemory) Approve(owner, spender crypto.Address, amount fixedpoint.Wad) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.allowances[key(owner)]
	if !ok {
		m = make(map[string]fixedpoint.Wad)
		t.allowances[key(owner)] = m
	}
	m[key(spender)] = amount
	return nil
}

// TransferFrom moves amount from owner to to, debiting the spender's
// allowance. Used by the vault to pull repayments from the borrower.
func (t *InMemory) TransferFrom(spender, owner, to crypto.Address, amount fixedpoint.Wad) error {
	if !t.limiter.Allow() {
		return ErrThrottled
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := fixedpoint.ZeroWad()
	if m, ok := t.allowances[key(owner)]; ok {
		allowed = m[key(spender)]
	}
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	balance := t.balanceLocked(owner)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	newAllowed, err := allowed.Sub(amount)
	if err != nil {
		return err
	}
	newOwnerBalance, err := balance.Sub(amount)
	if err != nil {
		return err
	}
	newToBalance, err := t.balanceLocked(to).Add(amount)
	if err != nil {
		return err
	}

	t.allowances[key(owner)][key(spender)] = newAllowed
	t.balances[key(owner)] = newOwnerBalance
	t.balances[key(to)] = newToBalance
	return nil
}

// Mint credits to with amount and increases total supply. Vault-only.
func (t *InMemory) Mint(caller, to crypto.Address, amount fixedpoint.Wad) error {
	if key(caller) != key(t.minter) {
		return ErrUnauthorizedMinter
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	newBalance, err := t.balanceLocked(to).Add(amount)
	if err != nil {
		return err
	}
	newSupply, err := t.totalSupply.Add(amount)
	if err != nil {
		return err
	}
	t.balances[key(to)] = newBalance
	t.totalSupply = newSupply
	return nil
}

// Burn debits from by amount and decreases total supply. Vault-only.
func (t *InMemory) Burn(caller, from crypto.Address, amount fixedpoint.Wad) error {
	if key(caller) != key(t.minter) {
		return ErrUnauthorizedMinter
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	balance := t.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	newBalance, err := balance.Sub(amount)
	if err != nil {
		return err
	}
	newSupply, err := t.totalSupply.Sub(amount)
	if err != nil {
		return err
	}
	t.balances[key(from)] = newBalance
	t.totalSupply = newSupply
	return nil
}
