package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/globalfoundation/gnf/block"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/db"
	"github.com/globalfoundation/gnf/logx"
)

// BlockStore keeps the canonical chain by number, with a hash index.
type BlockStore interface {
	Block(number uint64) (*block.Block, error)
	BlockByHash(hash common.Hash) (*block.Block, error)
	HasBlock(number uint64) (bool, error)
	LatestNumber() (uint64, bool)
	StageBlock(batch db.DatabaseBatch, b *block.Block) error
	// MarkStored updates the cached head after the batch holding StageBlock was written.
	MarkStored(b *block.Block)
	MustClose()
}

type GenericBlockStore struct {
	provider   db.DatabaseProvider
	mu         sync.RWMutex
	latest     uint64
	haveLatest bool
}

func NewGenericBlockStore(provider db.DatabaseProvider) (*GenericBlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	s := &GenericBlockStore{provider: provider}
	if err := s.loadLatest(); err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	return s, nil
}

func (s *GenericBlockStore) loadLatest() error {
	value, err := s.provider.Get([]byte(PrefixBlockMeta + BlockMetaKeyLatestNumber))
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if value == nil {
		return nil
	}
	if len(value) != 8 {
		return fmt.Errorf("invalid latest block value length: %d", len(value))
	}
	s.latest = binary.BigEndian.Uint64(value)
	s.haveLatest = true
	return nil
}

func numberKey(prefix string, n uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], n)
	return key
}

func (s *GenericBlockStore) Block(number uint64) (*block.Block, error) {
	value, err := s.provider.Get(numberKey(PrefixBlock, number))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", number, err)
	}
	if value == nil {
		return nil, nil
	}
	return block.Decode(value)
}

func (s *GenericBlockStore) BlockByHash(hash common.Hash) (*block.Block, error) {
	value, err := s.provider.Get(append([]byte(PrefixBlockNumberByHash), hash[:]...))
	if err != nil {
		return nil, err
	}
	if len(value) != 8 {
		return nil, nil
	}
	return s.Block(binary.BigEndian.Uint64(value))
}

func (s *GenericBlockStore) HasBlock(number uint64) (bool, error) {
	return s.provider.Has(numberKey(PrefixBlock, number))
}

func (s *GenericBlockStore) LatestNumber() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.haveLatest
}

func (s *GenericBlockStore) StageBlock(batch db.DatabaseBatch, b *block.Block) error {
	if b == nil {
		return fmt.Errorf("block cannot be nil")
	}
	value, err := block.Encode(b)
	if err != nil {
		return fmt.Errorf("failed to encode block %d: %w", b.Header.Number, err)
	}
	n := b.Header.Number
	hash := b.Hash()
	num := make([]byte, 8)
	binary.BigEndian.PutUint64(num, n)

	batch.Put(numberKey(PrefixBlock, n), value)
	batch.Put(append([]byte(PrefixBlockNumberByHash), hash[:]...), num)
	batch.Put([]byte(PrefixBlockMeta+BlockMetaKeyLatestNumber), num)
	return nil
}

func (s *GenericBlockStore) MarkStored(b *block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b.Header.Number
	s.haveLatest = true
	logx.Info("BLOCKSTORE", "stored block", b.Header.Number, b.Hash().Hex())
}

func (s *GenericBlockStore) MustClose() {
	if err := s.provider.Close(); err != nil {
		logx.Error("BLOCKSTORE", "Failed to close provider:", err)
	}
}
