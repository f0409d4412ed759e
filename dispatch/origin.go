package dispatch

import (
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
)

// Origin is who a call is dispatched as.
type Origin interface {
	isOrigin()
}

// SignedOrigin is a native call signed by Who.
type SignedOrigin struct {
	Who common.Address
}

// RootOrigin is the privileged origin reached through sudo.
type RootOrigin struct{}

// EthereumTransactionOrigin carries the sender recovered while validating a
// self-contained call, so the handler does not verify the signature again.
type EthereumTransactionOrigin struct {
	SignedInfo common.Address
}

func (SignedOrigin) isOrigin()              {}
func (RootOrigin) isOrigin()                {}
func (EthereumTransactionOrigin) isOrigin() {}

// Executor applies a call that passed every check. Effects of a failed call are rolled
// back by the caller; the returned post info is used even on failure.
type Executor interface {
	Dispatch(call transaction.Call, origin Origin, view *state.View) (types.PostDispatchInfo, error)
}

// Verifier checks a native signature against the claimed signer.
type Verifier interface {
	Verify(payload common.Hash, sig []byte, signer common.Address) bool
}

// Secp256k1Verifier accepts a signature whose recovered address equals the signer.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(payload common.Hash, sig []byte, signer common.Address) bool {
	recovered, err := common.RecoverSigner(payload[:], sig)
	if err != nil {
		return false
	}
	return recovered == signer
}
