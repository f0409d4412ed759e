package db

import (
	"fmt"

	"github.com/globalfoundation/gnf/logx"
)

// DBTxManager runs a function against one batch of the shared provider, so that a block
// and everything derived from it are persisted together or not at all.
type DBTxManager struct {
	provider DatabaseProvider
}

func NewDBTxManager(provider DatabaseProvider) *DBTxManager {
	return &DBTxManager{provider: provider}
}

// WithBatch writes the batch only if fn succeeds.
func (tm *DBTxManager) WithBatch(fn func(batch DatabaseBatch) error) error {
	batch := tm.provider.Batch()
	defer batch.Close()

	if err := fn(batch); err != nil {
		batch.Reset()
		logx.Warn("DB_TX", "discarding batch:", err)
		return fmt.Errorf("batch aborted: %w", err)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
