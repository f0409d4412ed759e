package ledger

import (
	"encoding/binary"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/state"
	"golang.org/x/crypto/sha3"
)

// ComputeStateDeltaHash hashes the writes of one block. Each change is encoded as
// len(key)|key|flag|len(value)|value with 8-byte big-endian lengths; flag is 1 for a
// deletion. Changes must be key sorted, as Overlay.Changes returns them.
func ComputeStateDeltaHash(changes []state.Change) common.Hash {
	if len(changes) == 0 {
		return common.Hash{}
	}
	h := sha3.NewLegacyKeccak256()
	buf := make([]byte, 8)
	for _, c := range changes {
		binary.BigEndian.PutUint64(buf, uint64(len(c.Key)))
		h.Write(buf)
		h.Write(c.Key)
		if c.Deleted {
			h.Write([]byte{1})
			continue
		}
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf, uint64(len(c.Value)))
		h.Write(buf)
		h.Write(c.Value)
	}
	return common.BytesToHash(h.Sum(nil))
}

// CombineStateHash chains a block's delta onto the previous state hash:
// keccak256(prev || delta). An empty delta keeps prev.
func CombineStateHash(prev, delta common.Hash) common.Hash {
	if delta.IsZero() {
		return prev
	}
	if prev.IsZero() {
		return delta
	}
	return common.Keccak256Hash(prev[:], delta[:])
}
