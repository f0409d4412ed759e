package block

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
)

// Header commits to the parent, the post-state and the extrinsics of a block.
type Header struct {
	Number         uint64
	ParentHash     common.Hash
	StateRoot      common.Hash
	ExtrinsicsRoot common.Hash
	Digests        []types.DigestItem
}

// Hash is keccak over the RLP encoding of the header.
func (h *Header) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		// every field is RLP-encodable
		panic(fmt.Sprintf("encode header: %v", err))
	}
	return common.Keccak256Hash(enc)
}

// Block is a header plus its encoded extrinsics, in application order.
type Block struct {
	Header     Header
	Extrinsics [][]byte
}

// Assemble builds an unsealed block. The state root is filled in once the block has been
// applied.
func Assemble(number uint64, parent common.Hash, digests []types.DigestItem, extrinsics [][]byte) *Block {
	return &Block{
		Header: Header{
			Number:         number,
			ParentHash:     parent,
			ExtrinsicsRoot: ExtrinsicsRoot(extrinsics),
			Digests:        digests,
		},
		Extrinsics: extrinsics,
	}
}

func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// ExtrinsicsRoot is keccak over the RLP list of encoded extrinsics.
func ExtrinsicsRoot(extrinsics [][]byte) common.Hash {
	if extrinsics == nil {
		extrinsics = [][]byte{}
	}
	enc, err := rlp.EncodeToBytes(extrinsics)
	if err != nil {
		panic(fmt.Sprintf("encode extrinsics: %v", err))
	}
	return common.Keccak256Hash(enc)
}

// VerifyExtrinsicsRoot checks the header commitment against the body.
func (b *Block) VerifyExtrinsicsRoot() error {
	if got := ExtrinsicsRoot(b.Extrinsics); got != b.Header.ExtrinsicsRoot {
		return fmt.Errorf("extrinsics root mismatch: header %s, body %s", b.Header.ExtrinsicsRoot, got)
	}
	return nil
}

// DecodeExtrinsics decodes the body. A malformed entry fails the whole block.
func (b *Block) DecodeExtrinsics() ([]*transaction.Extrinsic, error) {
	out := make([]*transaction.Extrinsic, len(b.Extrinsics))
	for i, raw := range b.Extrinsics {
		x, err := transaction.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("extrinsic %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

func Encode(b *Block) ([]byte, error) { return rlp.EncodeToBytes(b) }

func Decode(data []byte) (*Block, error) {
	var b Block
	if err := rlp.DecodeBytes(data, &b); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return &b, nil
}
