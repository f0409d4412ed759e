package transaction

import (
	"errors"
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// Wire tags of the call variants. Never reuse a retired value.
const (
	tagRemark uint8 = iota
	tagTransfer
	tagTransferKeepAlive
	tagSetKeys
	tagAddValidator
	tagRemoveValidator
	tagSudo
	tagEthereumTransact
)

// maxCallDepth bounds sudo nesting when decoding untrusted bytes.
const maxCallDepth = 4

var (
	ErrNilCall      = errors.New("extrinsic has no call")
	ErrUnknownCall  = errors.New("unknown call tag")
	ErrCallTooDeep  = errors.New("call nesting too deep")
	ErrMissingValue = errors.New("transfer value is missing")
)

type wireCall struct {
	Tag  uint8
	Data []byte
}

type wireExtra struct {
	Signer      common.Address
	Signature   []byte
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash common.Hash
	EraPeriod   uint64
	EraPhase    uint64
	Nonce       uint64
	Tip         *uint256.Int
}

type wireExtrinsic struct {
	Call  wireCall
	Extra *wireExtra `rlp:"nil"`
}

type wireTransfer struct {
	Dest  common.Address
	Value *uint256.Int
}

// Encode returns the canonical wire bytes of x.
func Encode(x *Extrinsic) ([]byte, error) {
	if x == nil {
		return nil, ErrNilCall
	}
	wc, err := encodeCall(x.Call, 0)
	if err != nil {
		return nil, err
	}
	w := wireExtrinsic{Call: wc}
	if x.Extra != nil {
		w.Extra = toWireExtra(x.Extra)
	}
	return encodeWire(&w)
}

// Decode parses wire bytes produced by Encode.
func Decode(data []byte) (*Extrinsic, error) {
	var w wireExtrinsic
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return nil, fmt.Errorf("decode extrinsic: %w", err)
	}
	call, err := decodeCall(w.Call, 0)
	if err != nil {
		return nil, err
	}
	x := &Extrinsic{Call: call}
	if w.Extra != nil {
		x.Extra = fromWireExtra(w.Extra)
	}
	return x, nil
}

func toWireExtra(e *SignedExtra) *wireExtra {
	return &wireExtra{
		Signer:      e.Signer,
		Signature:   e.Signature,
		SpecVersion: e.SpecVersion,
		TxVersion:   e.TxVersion,
		GenesisHash: e.GenesisHash,
		EraPeriod:   e.Era.Period,
		EraPhase:    e.Era.Phase,
		Nonce:       e.Nonce,
		Tip:         e.TipOrZero(),
	}
}

func fromWireExtra(w *wireExtra) *SignedExtra {
	tip := w.Tip
	if tip == nil {
		tip = uint256.NewInt(0)
	}
	return &SignedExtra{
		Signer:      w.Signer,
		Signature:   w.Signature,
		SpecVersion: w.SpecVersion,
		TxVersion:   w.TxVersion,
		GenesisHash: w.GenesisHash,
		Era:         types.Era{Period: w.EraPeriod, Phase: w.EraPhase},
		Nonce:       w.Nonce,
		Tip:         tip,
	}
}

func encodeCall(call Call, depth int) (wireCall, error) {
	if depth > maxCallDepth {
		return wireCall{}, ErrCallTooDeep
	}
	var (
		tag  uint8
		data []byte
		err  error
	)
	switch c := call.(type) {
	case *Remark:
		tag, data = tagRemark, c.Data
	case *Transfer:
		if c.Value == nil {
			return wireCall{}, ErrMissingValue
		}
		tag = tagTransfer
		data, err = rlp.EncodeToBytes(&wireTransfer{Dest: c.Dest, Value: c.Value})
	case *TransferKeepAlive:
		if c.Value == nil {
			return wireCall{}, ErrMissingValue
		}
		tag = tagTransferKeepAlive
		data, err = rlp.EncodeToBytes(&wireTransfer{Dest: c.Dest, Value: c.Value})
	case *SetKeys:
		tag = tagSetKeys
		data, err = rlp.EncodeToBytes(&c.Keys)
	case *AddValidator:
		tag, data = tagAddValidator, c.Validator.Bytes()
	case *RemoveValidator:
		tag, data = tagRemoveValidator, c.Validator.Bytes()
	case *SudoCall:
		if c.Inner == nil {
			return wireCall{}, ErrNilCall
		}
		var inner wireCall
		inner, err = encodeCall(c.Inner, depth+1)
		if err != nil {
			return wireCall{}, err
		}
		tag = tagSudo
		data, err = rlp.EncodeToBytes(&inner)
	case *EthereumTransact:
		if c.Tx == nil {
			return wireCall{}, ErrNilCall
		}
		tag = tagEthereumTransact
		data, err = c.Tx.MarshalBinary()
	case nil:
		return wireCall{}, ErrNilCall
	default:
		return wireCall{}, fmt.Errorf("%w: %T", ErrUnknownCall, call)
	}
	if err != nil {
		return wireCall{}, fmt.Errorf("encode %s: %w", call.Name(), err)
	}
	return wireCall{Tag: tag, Data: data}, nil
}

func decodeCall(w wireCall, depth int) (Call, error) {
	if depth > maxCallDepth {
		return nil, ErrCallTooDeep
	}
	switch w.Tag {
	case tagRemark:
		return &Remark{Data: w.Data}, nil
	case tagTransfer, tagTransferKeepAlive:
		var t wireTransfer
		if err := rlp.DecodeBytes(w.Data, &t); err != nil {
			return nil, fmt.Errorf("decode transfer: %w", err)
		}
		if w.Tag == tagTransfer {
			return &Transfer{Dest: t.Dest, Value: t.Value}, nil
		}
		return &TransferKeepAlive{Dest: t.Dest, Value: t.Value}, nil
	case tagSetKeys:
		var keys types.SessionKeys
		if err := rlp.DecodeBytes(w.Data, &keys); err != nil {
			return nil, fmt.Errorf("decode set_keys: %w", err)
		}
		return &SetKeys{Keys: keys}, nil
	case tagAddValidator, tagRemoveValidator:
		if len(w.Data) != common.AddressLength {
			return nil, fmt.Errorf("%w: validator is %d bytes", common.ErrInvalidAddressLen, len(w.Data))
		}
		addr := common.BytesToAddress(w.Data)
		if w.Tag == tagAddValidator {
			return &AddValidator{Validator: addr}, nil
		}
		return &RemoveValidator{Validator: addr}, nil
	case tagSudo:
		var inner wireCall
		if err := rlp.DecodeBytes(w.Data, &inner); err != nil {
			return nil, fmt.Errorf("decode sudo: %w", err)
		}
		call, err := decodeCall(inner, depth+1)
		if err != nil {
			return nil, err
		}
		return &SudoCall{Inner: call}, nil
	case tagEthereumTransact:
		tx := new(ethtypes.Transaction)
		if err := tx.UnmarshalBinary(w.Data); err != nil {
			return nil, fmt.Errorf("decode ethereum transaction: %w", err)
		}
		return &EthereumTransact{Tx: tx}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCall, w.Tag)
}

func encodeWire(w *wireExtrinsic) ([]byte, error) {
	return rlp.EncodeToBytes(w)
}
