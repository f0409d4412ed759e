package store

import (
	"testing"

	"github.com/globalfoundation/gnf/block"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/db"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStores(t *testing.T) *Stores {
	t.Helper()
	s, err := CreateStore(&StoreConfig{Type: MemoryStoreType, Compress: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreConfigValidate(t *testing.T) {
	assert.Error(t, (&StoreConfig{}).Validate())
	assert.Error(t, (&StoreConfig{Type: LevelDBStoreType}).Validate())
	assert.Error(t, (&StoreConfig{Type: "rocksdb", Directory: "x"}).Validate())
	assert.NoError(t, (&StoreConfig{Type: PebbleStoreType, Directory: "x"}).Validate())
	assert.NoError(t, (&StoreConfig{Type: MemoryStoreType}).Validate())
}

func TestCreateStoreOnDisk(t *testing.T) {
	for _, typ := range []StoreType{LevelDBStoreType, PebbleStoreType, BoltStoreType} {
		t.Run(string(typ), func(t *testing.T) {
			s, err := CreateStore(&StoreConfig{Type: typ, Directory: t.TempDir()})
			require.NoError(t, err)
			defer s.Close()
			empty, err := s.State.IsEmpty()
			require.NoError(t, err)
			assert.True(t, empty)
		})
	}
}

func TestStateStoreWritesChanges(t *testing.T) {
	s := memStores(t)
	err := s.TxManager.WithBatch(func(b db.DatabaseBatch) error {
		s.State.WriteChanges(b, []state.Change{
			{Key: []byte(state.KeyCode), Value: []byte{0, 'a', 's', 'm'}},
			{Key: []byte("x"), Value: []byte("1")},
		})
		return nil
	})
	require.NoError(t, err)

	empty, err := s.State.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, s.TxManager.WithBatch(func(b db.DatabaseBatch) error {
		s.State.WriteChanges(b, []state.Change{{Key: []byte("x"), Deleted: true}})
		return nil
	}))
	v, err := s.State.Get([]byte("x"))
	require.NoError(t, err)
	assert.Nil(t, v)

	var keys []string
	require.NoError(t, s.State.Iterate(func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	}))
	assert.Equal(t, []string{state.KeyCode}, keys)
}

func TestBlockStore(t *testing.T) {
	s := memStores(t)
	_, ok := s.Blocks.LatestNumber()
	assert.False(t, ok)

	b := block.Assemble(3, common.Hash{1}, nil, nil)
	require.NoError(t, s.TxManager.WithBatch(func(batch db.DatabaseBatch) error {
		return s.Blocks.StageBlock(batch, b)
	}))
	s.Blocks.MarkStored(b)

	n, ok := s.Blocks.LatestNumber()
	require.True(t, ok)
	assert.Equal(t, uint64(3), n)

	got, err := s.Blocks.Block(3)
	require.NoError(t, err)
	assert.Equal(t, b.Hash(), got.Hash())
	byHash, err := s.Blocks.BlockByHash(b.Hash())
	require.NoError(t, err)
	require.NotNil(t, byHash)
	assert.Equal(t, uint64(3), byHash.Header.Number)

	missing, err := s.Blocks.Block(4)
	require.NoError(t, err)
	assert.Nil(t, missing)

	reopened, err := NewGenericBlockStore(s.Provider)
	require.NoError(t, err)
	n, ok = reopened.LatestNumber()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), n)
}

func TestTxMetaStore(t *testing.T) {
	s := memStores(t)
	metas := []*types.TransactionMeta{
		{TxHash: "aaa", BlockNumber: 1, Status: types.TxStatusSuccess},
		{TxHash: "bbb", BlockNumber: 1, Status: types.TxStatusFailed, Error: "boom"},
	}
	require.NoError(t, s.TxManager.WithBatch(func(b db.DatabaseBatch) error {
		return s.TxMetas.StageBatch(b, metas)
	}))

	got, err := s.TxMetas.GetByHash("bbb")
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)

	none, err := s.TxMetas.GetByHash("zzz")
	require.NoError(t, err)
	assert.Nil(t, none)

	batch, err := s.TxMetas.GetBatch([]string{"aaa", "zzz"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, int32(types.TxStatusSuccess), batch["aaa"].Status)
}

func TestStateMetaStore(t *testing.T) {
	s := memStores(t)
	h := common.Keccak256Hash([]byte("state"))
	require.NoError(t, s.TxManager.WithBatch(func(b db.DatabaseBatch) error {
		s.StateMeta.StageStateHash(b, 9, h)
		return nil
	}))
	got, ok, err := s.StateMeta.StateHash(9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok, err = s.StateMeta.StateHash(10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short"))
	assert.Equal(t, "01234567...89abcdef", shorten("0123456789abcdef0123456789abcdef"))
}
