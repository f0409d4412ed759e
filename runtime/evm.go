package runtime

import (
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/globalfoundation/gnf/balances"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/dispatch"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/state"
	"github.com/holiman/uint256"
)

// EVMRunner executes the body of a validated Ethereum transaction for from. Gas payment
// and the nonce are handled by the dispatcher; the runner moves value and reports gas used.
type EVMRunner interface {
	Run(view *state.View, from common.Address, tx *ethtypes.Transaction) (uint64, error)
}

// TransferRunner supports plain value transfers between accounts. Contract creation and
// calls carrying data fail with evm_unsupported and consume the full gas limit.
type TransferRunner struct{}

func (TransferRunner) Run(view *state.View, from common.Address, tx *ethtypes.Transaction) (uint64, error) {
	if tx.To() == nil {
		return tx.Gas(), errors.NewDispatch(errors.ErrCodeEVMUnsupported, "contract creation is not supported")
	}
	if len(tx.Data()) > 0 {
		return tx.Gas(), errors.NewDispatch(errors.ErrCodeEVMUnsupported, "contract calls are not supported")
	}
	intrinsic, _ := dispatch.IntrinsicGas(tx)
	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return intrinsic, errors.NewDispatch(errors.ErrCodeOverflow, "value overflows")
	}
	return intrinsic, balances.Transfer(view, from, common.FromEVM(*tx.To()), value, balances.AllowDeath)
}
