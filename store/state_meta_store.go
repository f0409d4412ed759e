package store

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/db"
)

// StateMetaStore records the chained state hash of every applied block, kept apart from
// the block bodies.
type StateMetaStore interface {
	StageStateHash(batch db.DatabaseBatch, number uint64, hash common.Hash)
	StateHash(number uint64) (common.Hash, bool, error)
}

type GenericStateMetaStore struct {
	provider db.DatabaseProvider
}

func NewGenericStateMetaStore(provider db.DatabaseProvider) *GenericStateMetaStore {
	return &GenericStateMetaStore{provider: provider}
}

func (s *GenericStateMetaStore) StageStateHash(batch db.DatabaseBatch, number uint64, hash common.Hash) {
	batch.Put(numberKey(PrefixStateHashByNumber, number), hash[:])
}

func (s *GenericStateMetaStore) StateHash(number uint64) (common.Hash, bool, error) {
	value, err := s.provider.Get(numberKey(PrefixStateHashByNumber, number))
	if err != nil {
		return common.Hash{}, false, fmt.Errorf("failed to get state hash for block %d: %w", number, err)
	}
	if len(value) == 0 {
		return common.Hash{}, false, nil
	}
	if len(value) != common.HashLength {
		return common.Hash{}, false, fmt.Errorf("invalid state hash length: %d", len(value))
	}
	return common.BytesToHash(value), true, nil
}
