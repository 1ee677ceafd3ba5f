package token

import (
	"math/big"
	"testing"

	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.DebtPrefix, raw)
}

func wad(n uint64) fixedpoint.Wad {
	w, err := fixedpoint.NewWadFromBigInt(new(big.Int).Mul(new(big.Int).SetUint64(n), big.NewInt(1_000_000_000_000_000_000)))
	if err != nil {
		panic(err)
	}
	return w
}

func TestMintBurnVaultOnly(t *testing.T) {
	vault := addr(1)
	other := addr(2)
	user := addr(3)
	tok := NewInMemory(vault)

	if err := tok.Mint(other, user, wad(10)); err != ErrUnauthorizedMinter {
		t.Fatalf("expected ErrUnauthorizedMinter, got %v", err)
	}
	if err := tok.Mint(vault, user, wad(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.BalanceOf(user).Cmp(wad(10)) != 0 {
		t.Fatalf("expected balance 10, got %s", tok.BalanceOf(user))
	}
	if tok.TotalSupply().Cmp(wad(10)) != 0 {
		t.Fatalf("expected supply 10, got %s", tok.TotalSupply())
	}

	if err := tok.Burn(other, user, wad(5)); err != ErrUnauthorizedMinter {
		t.Fatalf("expected ErrUnauthorizedMinter, got %v", err)
	}
	if err := tok.Burn(vault, user, wad(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.BalanceOf(user).Cmp(wad(5)) != 0 {
		t.Fatalf("expected balance 5, got %s", tok.BalanceOf(user))
	}
}

func TestTransferFromRequiresAllowance(t *testing.T) {
	vault := addr(1)
	user := addr(2)
	recipient := addr(3)
	tok := NewInMemory(vault)
	if err := tok.Mint(vault, user, wad(100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tok.TransferFrom(vault, user, recipient, wad(50)); err != ErrInsufficientAllowance {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := tok.Approve(user, vault, wad(30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tok.TransferFrom(vault, user, recipient, wad(50)); err != ErrInsufficientAllowance {
		t.Fatalf("expected ErrInsufficientAllowance for amount above approved, got %v", err)
	}
	if err := tok.TransferFrom(vault, user, recipient, wad(30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.BalanceOf(recipient).Cmp(wad(30)) != 0 {
		t.Fatalf("expected recipient balance 30, got %s", tok.BalanceOf(recipient))
	}
	if tok.Allowance(user, vault).Sign() != 0 {
		t.Fatalf("expected allowance fully debited, got %s", tok.Allowance(user, vault))
	}
}
