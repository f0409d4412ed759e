package events

import (
	"time"

	"github.com/globalfoundation/gnf/common"
	"github.com/holiman/uint256"
)

type EventType string

const (
	EventExtrinsicApplied  EventType = "ExtrinsicApplied"
	EventExtrinsicRejected EventType = "ExtrinsicRejected"
	EventBlockImported     EventType = "BlockImported"
)

// LedgerEvent is published by the ledger after a block has been committed.
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	// TxHash is empty for block level events.
	TxHash() string
}

// ExtrinsicApplied reports an extrinsic included in a committed block. DispatchError is
// empty when the call succeeded.
type ExtrinsicApplied struct {
	txHash        string
	blockNumber   uint64
	blockHash     common.Hash
	index         int
	dispatchError string
	timestamp     time.Time
}

func NewExtrinsicApplied(txHash string, number uint64, hash common.Hash, index int, dispatchErr string) *ExtrinsicApplied {
	return &ExtrinsicApplied{
		txHash:        txHash,
		blockNumber:   number,
		blockHash:     hash,
		index:         index,
		dispatchError: dispatchErr,
		timestamp:     time.Now(),
	}
}

func (e *ExtrinsicApplied) Type() EventType        { return EventExtrinsicApplied }
func (e *ExtrinsicApplied) Timestamp() time.Time   { return e.timestamp }
func (e *ExtrinsicApplied) TxHash() string         { return e.txHash }
func (e *ExtrinsicApplied) BlockNumber() uint64    { return e.blockNumber }
func (e *ExtrinsicApplied) BlockHash() common.Hash { return e.blockHash }
func (e *ExtrinsicApplied) Index() int             { return e.index }
func (e *ExtrinsicApplied) Succeeded() bool        { return e.dispatchError == "" }
func (e *ExtrinsicApplied) DispatchError() string  { return e.dispatchError }

// ExtrinsicRejected reports an extrinsic left out of a block being built because it
// failed validity.
type ExtrinsicRejected struct {
	txHash    string
	reason    string
	timestamp time.Time
}

func NewExtrinsicRejected(txHash, reason string) *ExtrinsicRejected {
	return &ExtrinsicRejected{txHash: txHash, reason: reason, timestamp: time.Now()}
}

func (e *ExtrinsicRejected) Type() EventType      { return EventExtrinsicRejected }
func (e *ExtrinsicRejected) Timestamp() time.Time { return e.timestamp }
func (e *ExtrinsicRejected) TxHash() string       { return e.txHash }
func (e *ExtrinsicRejected) Reason() string       { return e.reason }

// BlockImported reports a committed block and how its fees were settled.
type BlockImported struct {
	number         uint64
	hash           common.Hash
	author         common.Address
	authorResolved bool
	treasury       *uint256.Int
	authorShare    *uint256.Int
	timestamp      time.Time
}

func NewBlockImported(number uint64, hash common.Hash, author common.Address, resolved bool, treasury, authorShare *uint256.Int) *BlockImported {
	return &BlockImported{
		number:         number,
		hash:           hash,
		author:         author,
		authorResolved: resolved,
		treasury:       treasury,
		authorShare:    authorShare,
		timestamp:      time.Now(),
	}
}

func (e *BlockImported) Type() EventType      { return EventBlockImported }
func (e *BlockImported) Timestamp() time.Time { return e.timestamp }
func (e *BlockImported) TxHash() string       { return "" }
func (e *BlockImported) Number() uint64       { return e.number }
func (e *BlockImported) Hash() common.Hash    { return e.hash }

// Author returns the resolved block author, if any.
func (e *BlockImported) Author() (common.Address, bool) { return e.author, e.authorResolved }

func (e *BlockImported) TreasuryShare() *uint256.Int { return e.treasury }
func (e *BlockImported) AuthorShare() *uint256.Int   { return e.authorShare }
