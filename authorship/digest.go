package authorship

import (
	"encoding/binary"

	"github.com/globalfoundation/gnf/types"
)

// slotLength is the size of the Aura pre-runtime payload: a little-endian u64 slot.
const slotLength = 8

// AuraSlot returns the slot from the first Aura pre-runtime digest item.
func AuraSlot(digests []types.DigestItem) (uint64, bool) {
	for _, d := range digests {
		if d.Kind != types.DigestPreRuntime || d.EngineID != types.AuraEngineID {
			continue
		}
		if len(d.Data) != slotLength {
			return 0, false
		}
		return binary.LittleEndian.Uint64(d.Data), true
	}
	return 0, false
}

// AuraPreDigest builds the pre-runtime digest item for slot.
func AuraPreDigest(slot uint64) types.DigestItem {
	data := make([]byte, slotLength)
	binary.LittleEndian.PutUint64(data, slot)
	return types.PreRuntime(types.AuraEngineID, data)
}

// AuthorityIndex maps the digest to a position in a set of n authorities.
func AuthorityIndex(digests []types.DigestItem, n int) (uint32, bool) {
	if n <= 0 {
		return 0, false
	}
	slot, ok := AuraSlot(digests)
	if !ok {
		return 0, false
	}
	return uint32(slot % uint64(n)), true
}
