package transaction

import (
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// Call is the closed set of dispatchable calls. Only types in this package implement it.
type Call interface {
	// Name is the pallet-style "module.call" name used in logs and metrics.
	Name() string
	isCall()
}

// Transfer moves Value from the signer to Dest, creating Dest if needed. The signer's
// account may be reaped.
type Transfer struct {
	Dest  common.Address
	Value *uint256.Int
}

// TransferKeepAlive is Transfer that refuses to drop the signer below the existential
// deposit.
type TransferKeepAlive struct {
	Dest  common.Address
	Value *uint256.Int
}

// Remark stores nothing; it only costs fees.
type Remark struct {
	Data []byte
}

// SetKeys queues the signer's session keys for the next session.
type SetKeys struct {
	Keys types.SessionKeys
}

// AddValidator adds an account to the validator set at the next session. Root only.
type AddValidator struct {
	Validator common.Address
}

// RemoveValidator removes an account from the validator set at the next session. Root only.
type RemoveValidator struct {
	Validator common.Address
}

// SudoCall dispatches Inner with root origin. Only the sudo key may sign it.
type SudoCall struct {
	Inner Call
}

// EthereumTransact wraps a signed Ethereum transaction. It is the only self-contained call:
// its sender comes from the embedded signature, not from an attached one.
type EthereumTransact struct {
	Tx *ethtypes.Transaction
}

func (*Transfer) Name() string          { return "balances.transfer" }
func (*TransferKeepAlive) Name() string { return "balances.transfer_keep_alive" }
func (*Remark) Name() string            { return "system.remark" }
func (*SetKeys) Name() string           { return "session.set_keys" }
func (*AddValidator) Name() string      { return "validator_set.add_validator" }
func (*RemoveValidator) Name() string   { return "validator_set.remove_validator" }
func (*SudoCall) Name() string          { return "sudo.sudo" }
func (*EthereumTransact) Name() string  { return "ethereum.transact" }

func (*Transfer) isCall()          {}
func (*TransferKeepAlive) isCall() {}
func (*Remark) isCall()            {}
func (*SetKeys) isCall()           {}
func (*AddValidator) isCall()      {}
func (*RemoveValidator) isCall()   {}
func (*SudoCall) isCall()          {}
func (*EthereumTransact) isCall()  {}
