package db

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBProvider is the default on-disk backend. Block batches are written with fsync so
// a committed block survives a crash.
type LevelDBProvider struct {
	once sync.Once
	db   *leveldb.DB
	sync *opt.WriteOptions
}

func NewLevelDBProvider(directory string) (IterableProvider, error) {
	db, err := leveldb.OpenFile(directory, &opt.Options{
		// the snappy provider compresses values itself when enabled
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", directory, err)
	}
	return &LevelDBProvider{db: db, sync: &opt.WriteOptions{Sync: true}}, nil
}

func (p *LevelDBProvider) Get(key []byte) ([]byte, error) {
	value, err := p.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

// GetBatch reads every key from one snapshot.
func (p *LevelDBProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	snap, err := p.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	for _, key := range keys {
		value, err := snap.Get(key, nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[string(key)] = value
	}
	return result, nil
}

func (p *LevelDBProvider) Put(key, value []byte) error  { return p.db.Put(key, value, nil) }
func (p *LevelDBProvider) Delete(key []byte) error      { return p.db.Delete(key, nil) }
func (p *LevelDBProvider) Has(key []byte) (bool, error) { return p.db.Has(key, nil) }

func (p *LevelDBProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

func (p *LevelDBProvider) Batch() DatabaseBatch {
	return &levelDBBatch{batch: new(leveldb.Batch), p: p}
}

func (p *LevelDBProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	iter := p.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if !callback(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

type levelDBBatch struct {
	batch *leveldb.Batch
	p     *LevelDBProvider
}

func (b *levelDBBatch) Put(key, value []byte) { b.batch.Put(key, value) }
func (b *levelDBBatch) Delete(key []byte)     { b.batch.Delete(key) }
func (b *levelDBBatch) Write() error          { return b.p.db.Write(b.batch, b.p.sync) }
func (b *levelDBBatch) Reset()                { b.batch.Reset() }
func (b *levelDBBatch) Close()                {}
