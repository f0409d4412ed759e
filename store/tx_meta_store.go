package store

import (
	"fmt"

	"github.com/globalfoundation/gnf/db"
	"github.com/globalfoundation/gnf/jsonx"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/types"
)

// TxMetaStore persists the execution record of every applied extrinsic.
type TxMetaStore interface {
	StageBatch(batch db.DatabaseBatch, txMetas []*types.TransactionMeta) error
	GetByHash(txHash string) (*types.TransactionMeta, error)
	GetBatch(txHashes []string) (map[string]*types.TransactionMeta, error)
	MustClose()
}

type GenericTxMetaStore struct {
	dbProvider db.DatabaseProvider
}

func NewGenericTxMetaStore(dbProvider db.DatabaseProvider) (*GenericTxMetaStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("tx meta store: nil provider")
	}
	return &GenericTxMetaStore{dbProvider: dbProvider}, nil
}

// StageBatch adds txMetas to batch; they are written with the block that produced them.
func (tms *GenericTxMetaStore) StageBatch(batch db.DatabaseBatch, txMetas []*types.TransactionMeta) error {
	for _, txMeta := range txMetas {
		data, err := jsonx.Marshal(txMeta)
		if err != nil {
			return fmt.Errorf("encode meta of %s: %w", shorten(txMeta.TxHash), err)
		}
		batch.Put(txMetaKey(txMeta.TxHash), data)
	}
	logx.Debug("TX_META_STORE", fmt.Sprintf("staged %d transaction metas", len(txMetas)))
	return nil
}

// GetByHash returns nil, nil when the hash is unknown.
func (tms *GenericTxMetaStore) GetByHash(txHash string) (*types.TransactionMeta, error) {
	data, err := tms.dbProvider.Get(txMetaKey(txHash))
	if err != nil {
		return nil, fmt.Errorf("read meta of %s: %w", shorten(txHash), err)
	}
	if data == nil {
		return nil, nil
	}

	var txMeta types.TransactionMeta
	if err := jsonx.Unmarshal(data, &txMeta); err != nil {
		return nil, fmt.Errorf("decode meta of %s: %w", shorten(txHash), err)
	}
	return &txMeta, nil
}

// GetBatch skips hashes that are missing or unreadable.
func (tms *GenericTxMetaStore) GetBatch(txHashes []string) (map[string]*types.TransactionMeta, error) {
	if len(txHashes) == 0 {
		return map[string]*types.TransactionMeta{}, nil
	}

	keys := make([][]byte, len(txHashes))
	for i, txHash := range txHashes {
		keys[i] = txMetaKey(txHash)
	}
	found, err := tms.dbProvider.GetBatch(keys)
	if err != nil {
		return nil, fmt.Errorf("read %d metas: %w", len(keys), err)
	}

	txMetas := make(map[string]*types.TransactionMeta, len(txHashes))
	for _, txHash := range txHashes {
		data, exists := found[string(txMetaKey(txHash))]
		if !exists {
			logx.Debug("TX_META_STORE", fmt.Sprintf("no meta for %s", shorten(txHash)))
			continue
		}

		var txMeta types.TransactionMeta
		if err := jsonx.Unmarshal(data, &txMeta); err != nil {
			logx.Warn("TX_META_STORE", fmt.Sprintf("skipping unreadable meta of %s: %v", shorten(txHash), err))
			continue
		}
		txMetas[txHash] = &txMeta
	}
	return txMetas, nil
}

func (tms *GenericTxMetaStore) MustClose() {
	if err := tms.dbProvider.Close(); err != nil {
		logx.Error("TX_META_STORE", "close provider:", err)
	}
}

func txMetaKey(txHash string) []byte {
	return []byte(PrefixTxMeta + txHash)
}

// shorten trims a hash for log lines.
func shorten(hash string) string {
	const keep = 8
	if len(hash) <= 2*keep {
		return hash
	}
	return hash[:keep] + "..." + hash[len(hash)-keep:]
}
