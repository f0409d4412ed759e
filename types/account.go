package types

import (
	"github.com/globalfoundation/gnf/common"
	"github.com/holiman/uint256"
)

// Account is the shared native/EVM account record. The EVM view of an account reads the
// same nonce and balance.
type Account struct {
	Address common.Address `json:"address"`
	Balance *uint256.Int   `json:"balance"`
	Nonce   uint64         `json:"nonce"`
}

// NewAccount returns an empty account for addr.
func NewAccount(addr common.Address) *Account {
	return &Account{Address: addr, Balance: uint256.NewInt(0)}
}

// Copy returns a deep copy so callers can mutate without touching the original.
func (a *Account) Copy() *Account {
	cp := *a
	if a.Balance != nil {
		cp.Balance = new(uint256.Int).Set(a.Balance)
	} else {
		cp.Balance = uint256.NewInt(0)
	}
	return &cp
}

// IsEmpty reports whether the account carries no state worth persisting.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero())
}
