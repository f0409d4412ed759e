package balances

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// Existence decides what happens when a withdrawal leaves dust behind.
type Existence uint8

const (
	// AllowDeath reaps an account whose balance falls below the existential deposit.
	AllowDeath Existence = iota
	// KeepAlive refuses a withdrawal that would drop the account below it.
	KeepAlive
)

// Deposit credits amount to addr, creating the account if needed. It does not enforce the
// existential deposit so that fee shares are never lost.
func Deposit(view *state.View, addr common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	acc, err := view.Account(addr)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(acc.Balance, amount)
	if overflow {
		return errors.NewDispatch(errors.ErrCodeOverflow, "balance of %s overflows", addr)
	}
	acc.Balance = sum
	return view.SetAccount(acc)
}

// Withdraw debits amount from addr.
func Withdraw(view *state.View, addr common.Address, amount *uint256.Int, existence Existence) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	acc, err := view.Account(addr)
	if err != nil {
		return err
	}
	if acc.Balance.Lt(amount) {
		return errors.NewDispatch(errors.ErrCodeInsufficientBalance, "%s has %s, needs %s", addr, acc.Balance, amount)
	}
	rest := new(uint256.Int).Sub(acc.Balance, amount)
	if !rest.IsZero() && rest.Lt(types.ExistentialDeposit) {
		if existence == KeepAlive {
			return errors.NewDispatch(errors.ErrCodeExistentialDeposit, "%s would drop below the existential deposit", addr)
		}
		if err := burn(view, rest); err != nil {
			return err
		}
		rest = uint256.NewInt(0)
	}
	if rest.IsZero() && existence == KeepAlive {
		return errors.NewDispatch(errors.ErrCodeExistentialDeposit, "%s would be reaped", addr)
	}
	acc.Balance = rest
	return view.SetAccount(acc)
}

// Transfer moves value between accounts. A new destination must receive at least the
// existential deposit.
func Transfer(view *state.View, from, to common.Address, value *uint256.Int, existence Existence) error {
	if value == nil {
		return errors.NewDispatch(errors.ErrCodeInsufficientBalance, "transfer value is missing")
	}
	if from == to || value.IsZero() {
		return nil
	}
	exists, err := view.AccountExists(to)
	if err != nil {
		return err
	}
	if !exists && value.Lt(types.ExistentialDeposit) {
		return errors.NewDispatch(errors.ErrCodeExistentialDeposit, "transfer of %s cannot create %s", value, to)
	}
	if err := Withdraw(view, from, value, existence); err != nil {
		return err
	}
	return Deposit(view, to, value)
}

// Endow sets the initial balance of addr and adds it to total issuance.
func Endow(view *state.View, addr common.Address, amount *uint256.Int) error {
	if err := Deposit(view, addr, amount); err != nil {
		return err
	}
	total, err := view.TotalIssuance()
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(total, amount)
	if overflow {
		return fmt.Errorf("total issuance overflows")
	}
	return view.SetTotalIssuance(sum)
}

// burn removes reaped dust from total issuance.
func burn(view *state.View, dust *uint256.Int) error {
	total, err := view.TotalIssuance()
	if err != nil {
		return err
	}
	if total.Lt(dust) {
		return view.SetTotalIssuance(uint256.NewInt(0))
	}
	return view.SetTotalIssuance(new(uint256.Int).Sub(total, dust))
}
