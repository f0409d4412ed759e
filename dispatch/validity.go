package dispatch

import (
	"encoding/binary"
	"math"

	"github.com/globalfoundation/gnf/common"
)

// Source is where a transaction entered the node.
type Source uint8

const (
	SourceInBlock Source = iota
	SourceLocal
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceInBlock:
		return "in_block"
	case SourceLocal:
		return "local"
	case SourceExternal:
		return "external"
	}
	return "unknown"
}

// Validity is what the pool learns about a valid transaction.
type Validity struct {
	Priority uint64
	// Requires lists tags that must be provided by earlier transactions.
	Requires [][]byte
	Provides [][]byte
	// Longevity is the number of blocks the transaction stays valid.
	Longevity uint64
	Propagate bool
}

func newValidity() Validity {
	return Validity{Longevity: math.MaxUint64, Propagate: true}
}

// nonceTag identifies the (account, nonce) slot a transaction occupies.
func nonceTag(who common.Address, nonce uint64) []byte {
	tag := make([]byte, common.AddressLength+8)
	copy(tag, who[:])
	binary.BigEndian.PutUint64(tag[common.AddressLength:], nonce)
	return tag
}
