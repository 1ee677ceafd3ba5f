// Package admin implements the vault's owner-restricted configuration
// surface: the pause flag and the validator identifier that pooled
// collateral delegates to. It is intentionally small — governance-controlled
// parameter updates beyond the validator setter are an explicit non-goal.
package admin

import (
	"strings"
	"sync"

	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
)

// ModuleName is the identifier AdminControl reports to native/common.Guard
// callers (the vault engine) for pause checks.
const ModuleName = "vault"

// Control holds the owner and the mutable validator/paused fields. All
// per-user position state lives in the vault engine, not here.
type Control struct {
	mu        sync.RWMutex
	owner     crypto.Address
	validator string
	paused    bool
}

// New constructs a Control for the given owner and initial validator key.
// The owner is fixed at construction and cannot be transferred — there is no
// transfer_ownership entrypoint; governance beyond the validator setter is
// out of scope.
func New(owner crypto.Address, validator string) (*Control, error) {
	validator = strings.TrimSpace(validator)
	if validator == "" {
		return nil, vaulterrors.ErrInvalidValidatorKey
	}
	return &Control{owner: owner, validator: validator}, nil
}

// Owner returns the fixed administrator address.
func (c *Control) Owner() crypto.Address {
	return c.owner
}

// Validator returns the current validator identifier pooled collateral
// delegates to.
func (c *Control) Validator() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validator
}

// IsPaused implements native/common.PauseView. The module argument is
// accepted for interface compatibility but ignored: the vault has a single
// global pause flag, not per-module flags.
func (c *Control) IsPaused(_ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

func (c *Control) requireOwner(caller crypto.Address) error {
	if string(caller.Bytes()) != string(c.owner.Bytes()) {
		return vaulterrors.ErrUnauthorized
	}
	return nil
}

// Pause sets the pause flag. Owner-only.
func (c *Control) Pause(caller crypto.Address, emitter events.Emitter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	c.paused = true
	if emitter != nil {
		emitter.Emit(events.Paused{By: caller})
	}
	return nil
}

// Unpause clears the pause flag. Owner-only.
func (c *Control) Unpause(caller crypto.Address, emitter events.Emitter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	c.paused = false
	if emitter != nil {
		emitter.Emit(events.Unpaused{By: caller})
	}
	return nil
}

// SetValidator updates the validator pooled collateral delegates to.
// Owner-only. Does not migrate any already-delegated balance; the vault
// engine may optionally redelegate incrementally through the adapter as new
// inbound deposits batch.
func (c *Control) SetValidator(caller crypto.Address, newKey string, emitter events.Emitter) error {
	newKey = strings.TrimSpace(newKey)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if newKey == "" {
		return vaulterrors.ErrInvalidValidatorKey
	}
	c.validator = newKey
	if emitter != nil {
		emitter.Emit(events.ValidatorSet{NewValidatorKey: newKey})
	}
	return nil
}
