// Package common holds small cross-module helpers shared by the vault's
// admin and engine packages.
package common

import vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"

// ErrModulePaused is returned by Guard when the named module is paused. It is
// the vault's ErrContractPaused sentinel, so errors.Is matches either name.
var ErrModulePaused = vaulterrors.ErrContractPaused

// PauseView is the minimal read-only view an engine needs to check whether
// a module is currently paused, without depending on the admin package's
// concrete type.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused if p reports module as paused. A nil
// PauseView or empty module name is treated as "not paused", so callers
// that have not wired pause checking yet fail open rather than panic.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
