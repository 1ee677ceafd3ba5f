package events

import (
	"github.com/IHB1-Foundation/magni-cspr/core/types"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// Event type names. These are the stable, externally-observed identifiers
// that event-stream consumers key off of; never renamed once published.
const (
	TypeDeposited             = "vault.deposited"
	TypeBorrowed              = "vault.borrowed"
	TypeRepaid                = "vault.repaid"
	TypeWithdrawRequested     = "vault.withdrawRequested"
	TypeWithdrawFinalized     = "vault.withdrawFinalized"
	TypeInterestAccrued       = "vault.interestAccrued"
	TypeDelegationBatched     = "vault.delegationBatched"
	TypeUndelegationRequested = "vault.undelegationRequested"
	TypeValidatorSet          = "vault.validatorSet"
	TypePaused                = "vault.paused"
	TypeUnpaused              = "vault.unpaused"
)

// Deposited is emitted by deposit/add_collateral on success.
type Deposited struct {
	User          crypto.Address
	AmountMotes   fixedpoint.Motes
	NewCollateral fixedpoint.Motes
}

func (Deposited) EventType() string { return TypeDeposited }

func (e Deposited) Event() *types.Event {
	return &types.Event{Type: TypeDeposited, Attributes: map[string]string{
		"user":               e.User.String(),
		"amount_motes":       e.AmountMotes.String(),
		"new_collateral_motes": e.NewCollateral.String(),
	}}
}

// Borrowed is emitted by borrow on success.
type Borrowed struct {
	User      crypto.Address
	AmountWad fixedpoint.Wad
	NewDebt   fixedpoint.Wad
}

func (Borrowed) EventType() string { return TypeBorrowed }

func (e Borrowed) Event() *types.Event {
	return &types.Event{Type: TypeBorrowed, Attributes: map[string]string{
		"user":         e.User.String(),
		"amount_wad":   e.AmountWad.String(),
		"new_debt_wad": e.NewDebt.String(),
	}}
}

// Repaid is emitted by repay/repay_all on success.
type Repaid struct {
	User      crypto.Address
	AmountWad fixedpoint.Wad
	NewDebt   fixedpoint.Wad
}

func (Repaid) EventType() string { return TypeRepaid }

func (e Repaid) Event() *types.Event {
	return &types.Event{Type: TypeRepaid, Attributes: map[string]string{
		"user":         e.User.String(),
		"amount_wad":   e.AmountWad.String(),
		"new_debt_wad": e.NewDebt.String(),
	}}
}

// WithdrawRequested is emitted by request_withdraw (and by withdraw_max via
// request_withdraw) on success, whether or not it settles immediately.
type WithdrawRequested struct {
	User        crypto.Address
	AmountMotes fixedpoint.Motes
}

func (WithdrawRequested) EventType() string { return TypeWithdrawRequested }

func (e WithdrawRequested) Event() *types.Event {
	return &types.Event{Type: TypeWithdrawRequested, Attributes: map[string]string{
		"user":         e.User.String(),
		"amount_motes": e.AmountMotes.String(),
	}}
}

// WithdrawFinalized is emitted by finalize_withdraw on success, and inline by
// request_withdraw when the settlement ticket is immediately liquid.
type WithdrawFinalized struct {
	User        crypto.Address
	AmountMotes fixedpoint.Motes
}

func (WithdrawFinalized) EventType() string { return TypeWithdrawFinalized }

func (e WithdrawFinalized) Event() *types.Event {
	return &types.Event{Type: TypeWithdrawFinalized, Attributes: map[string]string{
		"user":         e.User.String(),
		"amount_motes": e.AmountMotes.String(),
	}}
}

// InterestAccrued is emitted once per accrue() call that folds a non-zero
// interest amount into a user's debt principal.
type InterestAccrued struct {
	User      crypto.Address
	AmountWad fixedpoint.Wad
}

func (InterestAccrued) EventType() string { return TypeInterestAccrued }

func (e InterestAccrued) Event() *types.Event {
	return &types.Event{Type: TypeInterestAccrued, Attributes: map[string]string{
		"user":       e.User.String(),
		"amount_wad": e.AmountWad.String(),
	}}
}

// DelegationBatched is emitted by the delegation adapter when accumulated
// inbound deposits cross the batching threshold and are delegated.
type DelegationBatched struct {
	AmountMotes fixedpoint.Motes
}

func (DelegationBatched) EventType() string { return TypeDelegationBatched }

func (e DelegationBatched) Event() *types.Event {
	return &types.Event{Type: TypeDelegationBatched, Attributes: map[string]string{
		"amount_motes": e.AmountMotes.String(),
	}}
}

// UndelegationRequested is emitted by the delegation adapter when an
// outbound request cannot be satisfied from liquid reserves and a shortfall
// must be undelegated from the validator.
type UndelegationRequested struct {
	AmountMotes fixedpoint.Motes
}

func (UndelegationRequested) EventType() string { return TypeUndelegationRequested }

func (e UndelegationRequested) Event() *types.Event {
	return &types.Event{Type: TypeUndelegationRequested, Attributes: map[string]string{
		"amount_motes": e.AmountMotes.String(),
	}}
}

// ValidatorSet is emitted by the owner-only set_validator admin entrypoint.
type ValidatorSet struct {
	NewValidatorKey string
}

func (ValidatorSet) EventType() string { return TypeValidatorSet }

func (e ValidatorSet) Event() *types.Event {
	return &types.Event{Type: TypeValidatorSet, Attributes: map[string]string{
		"new_validator_key": e.NewValidatorKey,
	}}
}

// Paused is emitted by the owner-only pause admin entrypoint. Pause
// transitions must be observable from the event stream just like any other
// state change, so they get their own event rather than going unlogged.
type Paused struct {
	By crypto.Address
}

func (Paused) EventType() string { return TypePaused }

func (e Paused) Event() *types.Event {
	return &types.Event{Type: TypePaused, Attributes: map[string]string{
		"by": e.By.String(),
	}}
}

// Unpaused mirrors Paused for the unpause admin entrypoint.
type Unpaused struct {
	By crypto.Address
}

func (Unpaused) EventType() string { return TypeUnpaused }

func (e Unpaused) Event() *types.Event {
	return &types.Event{Type: TypeUnpaused, Attributes: map[string]string{
		"by": e.By.String(),
	}}
}
