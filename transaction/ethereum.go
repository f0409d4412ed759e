package transaction

import (
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/globalfoundation/gnf/common"
)

// EthereumSigner picks the signer an embedded transaction was signed with: chain-bound
// for typed and EIP-155 transactions, Homestead for legacy unprotected ones.
func EthereumSigner(tx *ethtypes.Transaction) ethtypes.Signer {
	if tx.Protected() {
		return ethtypes.LatestSignerForChainID(tx.ChainId())
	}
	return ethtypes.HomesteadSigner{}
}

// RecoverEthereumSender recovers the address that signed tx.
func RecoverEthereumSender(tx *ethtypes.Transaction) (common.Address, error) {
	if tx == nil {
		return common.Address{}, ErrNilCall
	}
	from, err := ethtypes.Sender(EthereumSigner(tx), tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover ethereum sender: %w", err)
	}
	return common.FromEVM(from), nil
}
