package transaction

import (
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// Kind is the outcome of classification.
type Kind uint8

const (
	Native Kind = iota
	SelfContained
)

func (k Kind) String() string {
	if k == SelfContained {
		return "self_contained"
	}
	return "native"
}

// SignedExtra is the signature and extension data attached to a native call, in the
// order the check chain consumes it.
type SignedExtra struct {
	Signer      common.Address
	Signature   []byte
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash common.Hash
	Era         types.Era
	Nonce       uint64
	Tip         *uint256.Int
}

// TipOrZero never returns nil.
func (e *SignedExtra) TipOrZero() *uint256.Int {
	if e == nil || e.Tip == nil {
		return uint256.NewInt(0)
	}
	return e.Tip
}

// Extrinsic is one block entry. Native calls carry Extra; a self-contained call must not.
type Extrinsic struct {
	Call  Call
	Extra *SignedExtra
}

// IsSigned reports whether a native signature is attached.
func (x *Extrinsic) IsSigned() bool {
	return x != nil && x.Extra != nil
}

// Classify decides which pipeline handles x. It reads only the call's variant and never
// fails: anything that is not an Ethereum transact, including a missing call, is native.
func Classify(x *Extrinsic) Kind {
	if x == nil {
		return Native
	}
	switch x.Call.(type) {
	case *EthereumTransact:
		return SelfContained
	case *Transfer, *TransferKeepAlive, *Remark, *SetKeys,
		*AddValidator, *RemoveValidator, *SudoCall:
		return Native
	default:
		return Native
	}
}

// NewUnsigned wraps a call without a signature. Valid only for EthereumTransact.
func NewUnsigned(call Call) *Extrinsic {
	return &Extrinsic{Call: call}
}
