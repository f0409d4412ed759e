package fees

import (
	"fmt"

	"github.com/globalfoundation/gnf/balances"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/state"
	"github.com/holiman/uint256"
)

// TreasuryAccount is the treasury pallet account: "modl" followed by the pallet id
// "py/trsry", zero padded to the address width.
var TreasuryAccount = func() common.Address {
	var a common.Address
	copy(a[:], "modlpy/trsry")
	return a
}()

// Outcome reports what a settlement paid.
type Outcome struct {
	Collected Record
	Treasury  *uint256.Int
	Author    *uint256.Int
	// AuthorAddr is meaningful only when AuthorResolved is true.
	AuthorAddr     common.Address
	AuthorResolved bool
}

// Settle drains pot and pays treasury and author. With no resolved author the author
// share goes to the treasury as well.
func Settle(view *state.View, shares Shares, pot *Pot, author common.Address, resolved bool) (Outcome, error) {
	rec, err := pot.Take()
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		Collected:      rec,
		Treasury:       uint256.NewInt(0),
		Author:         uint256.NewInt(0),
		AuthorAddr:     author,
		AuthorResolved: resolved,
	}
	if rec.IsZero() {
		return out, nil
	}

	split := shares.Split(rec)
	if resolved {
		out.Treasury, out.Author = split.Treasury, split.Author
	} else {
		out.Treasury = rec.Total()
	}

	if err := balances.Deposit(view, TreasuryAccount, out.Treasury); err != nil {
		return Outcome{}, fmt.Errorf("pay treasury: %w", err)
	}
	if resolved {
		if err := balances.Deposit(view, author, out.Author); err != nil {
			return Outcome{}, fmt.Errorf("pay author %s: %w", author, err)
		}
	}
	return out, nil
}
