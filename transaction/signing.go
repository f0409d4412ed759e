package transaction

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/common"
	"github.com/mr-tron/base58"
)

type signingPayload struct {
	Call        wireCall
	Signer      common.Address
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash common.Hash
	EraPeriod   uint64
	EraPhase    uint64
	Nonce       uint64
	Tip         []byte
}

// SigningPayload is the 32-byte digest a native signer signs: the call together with
// every signed extension, including the ones (versions, genesis) that pin the chain.
func SigningPayload(x *Extrinsic) (common.Hash, error) {
	if x == nil || x.Extra == nil {
		return common.Hash{}, fmt.Errorf("signing payload: %w", ErrNilCall)
	}
	wc, err := encodeCall(x.Call, 0)
	if err != nil {
		return common.Hash{}, err
	}
	e := x.Extra
	enc, err := rlp.EncodeToBytes(&signingPayload{
		Call:        wc,
		Signer:      e.Signer,
		SpecVersion: e.SpecVersion,
		TxVersion:   e.TxVersion,
		GenesisHash: e.GenesisHash,
		EraPeriod:   e.Era.Period,
		EraPhase:    e.Era.Phase,
		Nonce:       e.Nonce,
		Tip:         e.TipOrZero().Bytes(),
	})
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256Hash(enc), nil
}

// Sign fills in the signer and signature of a native extrinsic.
func Sign(x *Extrinsic, key *secp256k1.PrivateKey) error {
	if x.Extra == nil {
		x.Extra = &SignedExtra{}
	}
	x.Extra.Signer = common.KeyToAddress(key)
	payload, err := SigningPayload(x)
	if err != nil {
		return err
	}
	sig, err := common.Sign(payload[:], key)
	if err != nil {
		return fmt.Errorf("sign extrinsic: %w", err)
	}
	x.Extra.Signature = sig
	return nil
}

// Hash is the keccak256 of the wire encoding.
func Hash(x *Extrinsic) (common.Hash, error) {
	enc, err := Encode(x)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256Hash(enc), nil
}

// DedupHash identifies a transaction independently of how it was wrapped: the signing
// payload for native calls, the Ethereum hash for self-contained ones.
func DedupHash(x *Extrinsic) (string, error) {
	if et, ok := x.Call.(*EthereumTransact); ok && et.Tx != nil {
		h := et.Tx.Hash()
		return base58.Encode(h[:]), nil
	}
	h, err := SigningPayload(x)
	if err != nil {
		return "", err
	}
	return base58.Encode(h[:]), nil
}
