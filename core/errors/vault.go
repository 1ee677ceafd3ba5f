// Package errors collects the sentinel errors surfaced by the vault core.
// Every entrypoint either succeeds and commits its state changes, or returns
// an error and commits nothing. The engine's own checks report these
// sentinels; errors from its collaborators (the DebtToken, the host chain,
// the Store) are returned unchanged. Callers are expected to branch on
// errors.Is rather than parsing error strings.
package errors

import stderrors "errors"

var (
	// ErrContractPaused is returned by any user state-mutating entrypoint
	// while the admin pause flag is set.
	ErrContractPaused = stderrors.New("vault: contract paused")
	// ErrUnauthorized is returned when a non-owner calls an admin entrypoint.
	ErrUnauthorized = stderrors.New("vault: caller is not the owner")
	// ErrNoVault is returned by a mutating entrypoint (Borrow, Repay,
	// RepayAll, WithdrawMax) called against a user whose position status is
	// None. View entrypoints never return it: they read the zero-value
	// position for an unknown user instead of erroring.
	ErrNoVault = stderrors.New("vault: no position for user")
	// ErrZeroAmount is returned when an amount argument is zero where a
	// positive value is required.
	ErrZeroAmount = stderrors.New("vault: amount must be positive")
	// ErrInsufficientCollateral is returned when a withdraw amount exceeds
	// the caller's current collateral.
	ErrInsufficientCollateral = stderrors.New("vault: withdraw amount exceeds collateral")
	// ErrLtvExceeded is returned when an action would push the caller's
	// loan-to-value ratio above the configured ceiling.
	ErrLtvExceeded = stderrors.New("vault: loan-to-value ratio exceeded")
	// ErrInsufficientDebt is returned when repay is called against a
	// position with zero outstanding debt.
	ErrInsufficientDebt = stderrors.New("vault: no outstanding debt to repay")
	// ErrInsufficientAllowance names the repay failure caused by a too-small
	// DebtToken allowance. The engine returns the DebtToken's own error from
	// transfer_from unchanged (token.ErrInsufficientAllowance for the
	// reference token), not this sentinel.
	ErrInsufficientAllowance = stderrors.New("vault: insufficient debt token allowance")
	// ErrWithdrawPending is returned when a state-mutating entrypoint that
	// requires Active status is called while the caller is Withdrawing.
	ErrWithdrawPending = stderrors.New("vault: withdrawal already pending")
	// ErrNoWithdrawPending is returned when finalize_withdraw is called
	// against a position that is not Withdrawing.
	ErrNoWithdrawPending = stderrors.New("vault: no pending withdrawal to finalize")
	// ErrUnbondingNotComplete is returned when finalize_withdraw is called
	// but the host has not yet reported sufficient liquidity.
	ErrUnbondingNotComplete = stderrors.New("vault: unbonding not yet complete")
	// ErrBelowMinDeposit is published for wrapper callers that wish to
	// require a deposit of at least MinDepositMotes; the core itself
	// accepts any positive deposit.
	ErrBelowMinDeposit = stderrors.New("vault: deposit below minimum")
	// ErrInvalidValidatorKey is returned when the admin sets an empty or
	// malformed validator identifier.
	ErrInvalidValidatorKey = stderrors.New("vault: invalid validator key")
	// ErrOverflow is returned when an arithmetic operation would overflow
	// its integer domain.
	ErrOverflow = stderrors.New("vault: arithmetic overflow")
	// ErrVaultAlreadyInitialized guards against double-initialization of
	// the vault's global state.
	ErrVaultAlreadyInitialized = stderrors.New("vault: already initialized")
)
