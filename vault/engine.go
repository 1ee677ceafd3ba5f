package vault

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/IHB1-Foundation/magni-cspr/admin"
	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/delegation"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
	"github.com/IHB1-Foundation/magni-cspr/interest"
	"github.com/IHB1-Foundation/magni-cspr/native/common"
	"github.com/IHB1-Foundation/magni-cspr/token"
)

// Engine is the collateral/debt vault. One Engine instance serves the whole
// contract: every state-mutating entrypoint takes the engine's single lock,
// so the engine is safe to drive from concurrent callers even though the
// host chain itself serializes calls in practice. View entrypoints do not
// take the lock; each reads the Store, which has its own.
type Engine struct {
	mu sync.Mutex

	store        Store
	pauses       common.PauseView
	delegation   DelegationAdapter
	debtToken    token.DebtToken
	vaultAddress crypto.Address
	clock        Clock
}

// NewEngine wires the engine's dependencies and marks the backing Store
// initialized, failing with vaulterrors.ErrVaultAlreadyInitialized if this
// Store has already been initialized once. This mirrors a contract's
// constructor running exactly once against its own storage.
func NewEngine(store Store, pauses common.PauseView, delegationAdapter DelegationAdapter, debtToken token.DebtToken, vaultAddress crypto.Address, clock Clock) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("vault: store is required")
	}
	if delegationAdapter == nil {
		return nil, fmt.Errorf("vault: delegation adapter is required")
	}
	if debtToken == nil {
		return nil, fmt.Errorf("vault: debt token is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("vault: clock is required")
	}

	initialized, err := store.IsInitialized()
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, vaulterrors.ErrVaultAlreadyInitialized
	}
	if err := store.MarkInitialized(); err != nil {
		return nil, err
	}

	return &Engine{
		store:        store,
		pauses:       pauses,
		delegation:   delegationAdapter,
		debtToken:    debtToken,
		vaultAddress: vaultAddress,
		clock:        clock,
	}, nil
}

// projectAccrual pure-computes the principal and interest amount that
// accrual would produce as of now, without mutating pos or calling anything
// external. Every entrypoint calls this before any fallible check so a later
// failure (LTV, allowance, pending withdrawal) never leaves a partial
// accrual committed — see commitAccrual.
func projectAccrual(pos Position, now uint64) (newPrincipal, interestAmount fixedpoint.Wad, err error) {
	if pos.DebtPrincipal.IsZero() {
		return fixedpoint.ZeroWad(), fixedpoint.ZeroWad(), nil
	}
	amt, err := interest.Accrue(pos.DebtPrincipal, pos.LastAccrualTS, now)
	if err != nil {
		return fixedpoint.Wad{}, fixedpoint.Wad{}, err
	}
	if amt.IsZero() {
		return pos.DebtPrincipal, fixedpoint.ZeroWad(), nil
	}
	principal, err := pos.DebtPrincipal.Add(amt)
	if err != nil {
		return fixedpoint.Wad{}, fixedpoint.Wad{}, vaulterrors.ErrOverflow
	}
	return principal, amt, nil
}

// commitAccrual folds an already-projected accrual into pos and globals and
// mints the interest amount to the vault's own balance, the one external
// call accrual makes. It must only be reached once every other fallible
// check the calling entrypoint performs has already passed: this is the
// line past which the entrypoint is committed to succeeding.
func (e *Engine) commitAccrual(pos *Position, globals *Globals, user crypto.Address, now uint64, newPrincipal, interestAmount fixedpoint.Wad, emitter events.Emitter) error {
	pos.LastAccrualTS = now
	if interestAmount.IsZero() {
		pos.DebtPrincipal = newPrincipal
		return nil
	}
	newTotal, err := globals.TotalDebtPrincipal.Add(interestAmount)
	if err != nil {
		return err
	}
	if err := e.debtToken.Mint(e.vaultAddress, e.vaultAddress, interestAmount); err != nil {
		return err
	}
	pos.DebtPrincipal = newPrincipal
	globals.TotalDebtPrincipal = newTotal
	if emitter != nil {
		emitter.Emit(events.InterestAccrued{User: user, AmountWad: interestAmount})
	}
	return nil
}

func computeLtvBps(collateral fixedpoint.Motes, debt fixedpoint.Wad) (uint64, error) {
	if debt.IsZero() || collateral.IsZero() {
		return 0, nil
	}
	return fixedpoint.LtvBps(collateral, debt)
}

// computeHealthFactor mirrors a u64-saturating reading of
// max_borrow*BpsDivisor/debt, clamping to HealthFactorSentinel on overflow
// rather than silently wrapping the way a raw as_u64 truncation would.
func computeHealthFactor(collateral fixedpoint.Motes, debt fixedpoint.Wad) (uint64, error) {
	if debt.IsZero() {
		return HealthFactorSentinel, nil
	}
	maxBorrow, err := fixedpoint.MaxBorrowWad(collateral)
	if err != nil {
		return 0, err
	}
	numerator := new(big.Int).Mul(maxBorrow.BigInt(), big.NewInt(fixedpoint.BpsDivisor))
	hf := new(big.Int).Quo(numerator, debt.BigInt())
	if !hf.IsUint64() {
		return math.MaxUint64, nil
	}
	return hf.Uint64(), nil
}

// Deposit credits amount of collateral to user and hands it to the
// delegation adapter for pooling. Accepted in any amount; MinDepositMotes
// only gates the adapter's own batching threshold, not this entrypoint.
func (e *Engine) Deposit(user crypto.Address, amount fixedpoint.Motes, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}
	if amount.IsZero() {
		return vaulterrors.ErrZeroAmount
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	if pos.Status == StatusWithdrawing {
		return vaulterrors.ErrWithdrawPending
	}

	globals, err := e.store.GetGlobals()
	if err != nil {
		return err
	}

	now := e.clock.Now()
	newPrincipal, interestAmount, err := projectAccrual(pos, now)
	if err != nil {
		return err
	}

	newCollateral, err := pos.CollateralMotes.Add(amount)
	if err != nil {
		return err
	}
	newTotalCollateral, err := globals.TotalCollateral.Add(amount)
	if err != nil {
		return err
	}

	if err := e.commitAccrual(&pos, &globals, user, now, newPrincipal, interestAmount, emitter); err != nil {
		return err
	}
	pos.CollateralMotes = newCollateral
	pos.Status = StatusActive

	if err := e.delegation.RecordInbound(amount, emitter); err != nil {
		return err
	}
	globals.TotalCollateral = newTotalCollateral

	if err := e.store.PutPosition(user, pos); err != nil {
		return err
	}
	if err := e.store.PutGlobals(globals); err != nil {
		return err
	}

	if emitter != nil {
		emitter.Emit(events.Deposited{User: user, AmountMotes: amount, NewCollateral: pos.CollateralMotes})
	}
	return nil
}

// AddCollateral is an alias for Deposit: both entrypoints credit collateral
// identically, named separately because the vault's public ABI exposes both.
func (e *Engine) AddCollateral(user crypto.Address, amount fixedpoint.Motes, emitter events.Emitter) error {
	return e.Deposit(user, amount, emitter)
}

// Borrow mints amountWad of debt token to user, provided the resulting
// position stays within the loan-to-value ceiling.
func (e *Engine) Borrow(user crypto.Address, amountWad fixedpoint.Wad, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}
	if amountWad.IsZero() {
		return vaulterrors.ErrZeroAmount
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	switch pos.Status {
	case StatusNone:
		return vaulterrors.ErrNoVault
	case StatusWithdrawing:
		return vaulterrors.ErrWithdrawPending
	}

	globals, err := e.store.GetGlobals()
	if err != nil {
		return err
	}

	now := e.clock.Now()
	newPrincipal, interestAmount, err := projectAccrual(pos, now)
	if err != nil {
		return err
	}

	newDebt, err := newPrincipal.Add(amountWad)
	if err != nil {
		return err
	}
	ok, err := fixedpoint.WithinLTV(pos.CollateralMotes, newDebt)
	if err != nil {
		return err
	}
	if !ok {
		return vaulterrors.ErrLtvExceeded
	}

	if err := e.commitAccrual(&pos, &globals, user, now, newPrincipal, interestAmount, emitter); err != nil {
		return err
	}

	newTotalDebt, err := globals.TotalDebtPrincipal.Add(amountWad)
	if err != nil {
		return err
	}
	if err := e.debtToken.Mint(e.vaultAddress, user, amountWad); err != nil {
		return err
	}
	pos.DebtPrincipal = newDebt
	globals.TotalDebtPrincipal = newTotalDebt

	if err := e.store.PutPosition(user, pos); err != nil {
		return err
	}
	if err := e.store.PutGlobals(globals); err != nil {
		return err
	}

	if emitter != nil {
		emitter.Emit(events.Borrowed{User: user, AmountWad: amountWad, NewDebt: newDebt})
	}
	return nil
}

// repay applies up to amountWad against user's post-accrual debt principal,
// or the full post-accrual principal when all is true (repay_all). It is
// shared by the public Repay and RepayAll entrypoints, both of which take
// the engine lock before calling it.
func (e *Engine) repay(user crypto.Address, amountWad fixedpoint.Wad, all bool, emitter events.Emitter) error {
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}
	if !all && amountWad.IsZero() {
		return vaulterrors.ErrZeroAmount
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	if pos.Status == StatusNone {
		return vaulterrors.ErrNoVault
	}

	globals, err := e.store.GetGlobals()
	if err != nil {
		return err
	}

	now := e.clock.Now()
	newPrincipal, interestAmount, err := projectAccrual(pos, now)
	if err != nil {
		return err
	}

	var applied fixedpoint.Wad
	if all {
		applied = newPrincipal
	} else {
		applied = fixedpoint.Min(amountWad, newPrincipal)
	}
	if applied.IsZero() {
		return vaulterrors.ErrInsufficientDebt
	}

	// Pull the repayment before mutating anything: an allowance/balance
	// failure here must leave state, including accrual, untouched.
	if err := e.debtToken.TransferFrom(e.vaultAddress, user, e.vaultAddress, applied); err != nil {
		return err
	}

	if err := e.commitAccrual(&pos, &globals, user, now, newPrincipal, interestAmount, emitter); err != nil {
		return err
	}

	newDebt, err := pos.DebtPrincipal.Sub(applied)
	if err != nil {
		return err
	}
	newTotalDebt, err := globals.TotalDebtPrincipal.Sub(applied)
	if err != nil {
		return err
	}
	if err := e.debtToken.Burn(e.vaultAddress, e.vaultAddress, applied); err != nil {
		return err
	}
	pos.DebtPrincipal = newDebt
	globals.TotalDebtPrincipal = newTotalDebt

	if err := e.store.PutPosition(user, pos); err != nil {
		return err
	}
	if err := e.store.PutGlobals(globals); err != nil {
		return err
	}

	if emitter != nil {
		emitter.Emit(events.Repaid{User: user, AmountWad: applied, NewDebt: newDebt})
	}
	return nil
}

// Repay applies up to amountWad against user's outstanding debt. Any excess
// over the post-accrual principal is simply not pulled: applied may be less
// than amountWad.
func (e *Engine) Repay(user crypto.Address, amountWad fixedpoint.Wad, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repay(user, amountWad, false, emitter)
}

// RepayAll repays exactly user's post-accrual debt principal. The caller's
// DebtToken allowance to the vault must cover that amount or the call fails
// with token.ErrInsufficientAllowance and no state changes.
func (e *Engine) RepayAll(user crypto.Address, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repay(user, fixedpoint.ZeroWad(), true, emitter)
}

// requestWithdraw is the shared body of RequestWithdraw and WithdrawMax.
// Callers must hold e.mu and have already run the pause guard.
func (e *Engine) requestWithdraw(user crypto.Address, amountMotes fixedpoint.Motes, emitter events.Emitter) error {
	if amountMotes.IsZero() {
		return vaulterrors.ErrZeroAmount
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	if pos.Status == StatusWithdrawing {
		return vaulterrors.ErrWithdrawPending
	}
	if amountMotes.Cmp(pos.CollateralMotes) > 0 {
		return vaulterrors.ErrInsufficientCollateral
	}

	globals, err := e.store.GetGlobals()
	if err != nil {
		return err
	}

	now := e.clock.Now()
	newPrincipal, interestAmount, err := projectAccrual(pos, now)
	if err != nil {
		return err
	}

	newCollateral, err := pos.CollateralMotes.Sub(amountMotes)
	if err != nil {
		return err
	}
	if !newPrincipal.IsZero() {
		ok, err := fixedpoint.WithinLTV(newCollateral, newPrincipal)
		if err != nil {
			return err
		}
		if !ok {
			return vaulterrors.ErrLtvExceeded
		}
	}
	newTotalCollateral, err := globals.TotalCollateral.Sub(amountMotes)
	if err != nil {
		return err
	}

	if err := e.commitAccrual(&pos, &globals, user, now, newPrincipal, interestAmount, emitter); err != nil {
		return err
	}
	pos.CollateralMotes = newCollateral
	globals.TotalCollateral = newTotalCollateral

	ticket, err := e.delegation.RequestOutbound(amountMotes, emitter)
	if err != nil {
		return err
	}

	if ticket.Liquid {
		if err := e.delegation.TrySettle(ticket, user, amountMotes); err != nil {
			return err
		}
		pos.PendingWithdrawMotes = fixedpoint.ZeroMotes()
		pos.PendingTicket = delegation.Ticket{}
		if newCollateral.IsZero() && newPrincipal.IsZero() {
			pos.Status = StatusNone
		} else {
			pos.Status = StatusActive
		}
		if err := e.store.PutPosition(user, pos); err != nil {
			return err
		}
		if err := e.store.PutGlobals(globals); err != nil {
			return err
		}
		if emitter != nil {
			emitter.Emit(events.WithdrawRequested{User: user, AmountMotes: amountMotes})
			emitter.Emit(events.WithdrawFinalized{User: user, AmountMotes: amountMotes})
		}
		return nil
	}

	pos.PendingWithdrawMotes = amountMotes
	pos.PendingTicket = ticket
	pos.Status = StatusWithdrawing

	if err := e.store.PutPosition(user, pos); err != nil {
		return err
	}
	if err := e.store.PutGlobals(globals); err != nil {
		return err
	}
	if emitter != nil {
		emitter.Emit(events.WithdrawRequested{User: user, AmountMotes: amountMotes})
	}
	return nil
}

// RequestWithdraw begins withdrawing amountMotes of collateral. If the host's
// liquid reserves already cover it, the withdrawal settles inline within
// this same call (both WithdrawRequested and WithdrawFinalized fire).
// Otherwise the position moves to Withdrawing and finalize_withdraw must be
// called again once unbonding completes.
func (e *Engine) RequestWithdraw(user crypto.Address, amountMotes fixedpoint.Motes, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}
	return e.requestWithdraw(user, amountMotes, emitter)
}

// WithdrawMax requests the largest withdrawal that keeps the caller's
// post-accrual debt within the loan-to-value ceiling, using the ceiling
// (protocol-favorable) form of the minimum-collateral calculation rather
// than a truncating division.
func (e *Engine) WithdrawMax(user crypto.Address, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	if pos.Status == StatusNone {
		return vaulterrors.ErrNoVault
	}
	if pos.Status == StatusWithdrawing {
		return vaulterrors.ErrWithdrawPending
	}
	if pos.CollateralMotes.IsZero() {
		return vaulterrors.ErrInsufficientCollateral
	}

	now := e.clock.Now()
	newPrincipal, _, err := projectAccrual(pos, now)
	if err != nil {
		return err
	}

	var amount fixedpoint.Motes
	if newPrincipal.IsZero() {
		amount = pos.CollateralMotes
	} else {
		minCollateral, err := fixedpoint.MinCollateralForDebt(newPrincipal)
		if err != nil {
			return err
		}
		if pos.CollateralMotes.Cmp(minCollateral) <= 0 {
			return vaulterrors.ErrLtvExceeded
		}
		amount, err = pos.CollateralMotes.Sub(minCollateral)
		if err != nil {
			return err
		}
	}

	return e.requestWithdraw(user, amount, emitter)
}

// FinalizeWithdraw completes a pending withdrawal once the host reports
// enough liquidity to pay it out. Fails with vaulterrors.ErrUnbondingNotComplete
// (no state mutated) if the unbonding delay has not yet elapsed.
func (e *Engine) FinalizeWithdraw(user crypto.Address, emitter events.Emitter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, admin.ModuleName); err != nil {
		return err
	}

	pos, err := e.store.GetPosition(user)
	if err != nil {
		return err
	}
	if pos.Status != StatusWithdrawing {
		return vaulterrors.ErrNoWithdrawPending
	}

	amount := pos.PendingWithdrawMotes
	if err := e.delegation.TrySettle(pos.PendingTicket, user, amount); err != nil {
		return err
	}

	pos.PendingWithdrawMotes = fixedpoint.ZeroMotes()
	pos.PendingTicket = delegation.Ticket{}
	if pos.CollateralMotes.IsZero() && pos.DebtPrincipal.IsZero() {
		pos.Status = StatusNone
	} else {
		pos.Status = StatusActive
	}

	if err := e.store.PutPosition(user, pos); err != nil {
		return err
	}
	if emitter != nil {
		emitter.Emit(events.WithdrawFinalized{User: user, AmountMotes: amount})
	}
	return nil
}

// CollateralOf returns user's current collateral, unaffected by accrual.
func (e *Engine) CollateralOf(user crypto.Address) (fixedpoint.Motes, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return fixedpoint.Motes{}, err
	}
	return pos.CollateralMotes, nil
}

// DebtOf returns user's debt principal as of now, via a pure forward
// projection of accrual. It does not mutate stored state.
func (e *Engine) DebtOf(user crypto.Address) (fixedpoint.Wad, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return fixedpoint.Wad{}, err
	}
	newPrincipal, _, err := projectAccrual(pos, e.clock.Now())
	if err != nil {
		return fixedpoint.Wad{}, err
	}
	return newPrincipal, nil
}

// LtvOf returns user's projected loan-to-value ratio in basis points. Zero
// collateral reads as zero regardless of debt, matching GetPosition's
// defensive view-safety behavior rather than erroring.
func (e *Engine) LtvOf(user crypto.Address) (uint64, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return 0, err
	}
	debtWad, _, err := projectAccrual(pos, e.clock.Now())
	if err != nil {
		return 0, err
	}
	return computeLtvBps(pos.CollateralMotes, debtWad)
}

// HealthFactorOf returns HealthFactorSentinel for zero debt, otherwise
// max_borrow*BpsDivisor/debt in basis points.
func (e *Engine) HealthFactorOf(user crypto.Address) (uint64, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return 0, err
	}
	debtWad, _, err := projectAccrual(pos, e.clock.Now())
	if err != nil {
		return 0, err
	}
	return computeHealthFactor(pos.CollateralMotes, debtWad)
}

// PendingWithdrawOf returns the amount, if any, of a withdrawal currently
// awaiting finalization.
func (e *Engine) PendingWithdrawOf(user crypto.Address) (fixedpoint.Motes, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return fixedpoint.Motes{}, err
	}
	return pos.PendingWithdrawMotes, nil
}

// StatusOf returns user's position lifecycle state.
func (e *Engine) StatusOf(user crypto.Address) (Status, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return StatusNone, err
	}
	return pos.Status, nil
}

// Totals returns the protocol-wide collateral and debt-principal sums,
// unaffected by any single user's pending accrual. Callers such as the
// metrics package use this to drive dashboard gauges; GetPosition and the
// event log remain the authoritative per-user source of truth.
func (e *Engine) Totals() (fixedpoint.Motes, fixedpoint.Wad, error) {
	globals, err := e.store.GetGlobals()
	if err != nil {
		return fixedpoint.Motes{}, fixedpoint.Wad{}, err
	}
	return globals.TotalCollateral, globals.TotalDebtPrincipal, nil
}

// GetPosition returns the full read-model for user: raw collateral/debt
// plus the derived LTV and health factor, all projected as of now.
func (e *Engine) GetPosition(user crypto.Address) (PositionInfo, error) {
	pos, err := e.store.GetPosition(user)
	if err != nil {
		return PositionInfo{}, err
	}
	now := e.clock.Now()
	debtWad, _, err := projectAccrual(pos, now)
	if err != nil {
		return PositionInfo{}, err
	}
	collateralWad, err := fixedpoint.MotesToWad(pos.CollateralMotes)
	if err != nil {
		return PositionInfo{}, err
	}
	ltvBps, err := computeLtvBps(pos.CollateralMotes, debtWad)
	if err != nil {
		return PositionInfo{}, err
	}
	healthFactor, err := computeHealthFactor(pos.CollateralMotes, debtWad)
	if err != nil {
		return PositionInfo{}, err
	}
	return PositionInfo{
		CollateralMotes:      pos.CollateralMotes,
		CollateralWad:        collateralWad,
		DebtWad:              debtWad,
		LtvBps:               ltvBps,
		HealthFactor:         healthFactor,
		PendingWithdrawMotes: pos.PendingWithdrawMotes,
		Status:               pos.Status,
	}, nil
}
