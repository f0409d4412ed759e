package db

import (
	"fmt"

	"github.com/golang/snappy"
)

// SnappyProvider compresses values with snappy on top of another provider. Keys are
// stored as is so prefix iteration keeps working.
type SnappyProvider struct {
	inner DatabaseProvider
}

func NewSnappyProvider(inner DatabaseProvider) *SnappyProvider {
	return &SnappyProvider{inner: inner}
}

func decode(key, raw []byte) ([]byte, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %q: %w", key, err)
	}
	return v, nil
}

func (p *SnappyProvider) Get(key []byte) ([]byte, error) {
	raw, err := p.inner.Get(key)
	if err != nil {
		return nil, err
	}
	return decode(key, raw)
}

func (p *SnappyProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	raw, err := p.inner.GetBatch(keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		if out[k], err = decode([]byte(k), v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *SnappyProvider) Put(key, value []byte) error {
	return p.inner.Put(key, snappy.Encode(nil, value))
}

func (p *SnappyProvider) Delete(key []byte) error { return p.inner.Delete(key) }

func (p *SnappyProvider) Has(key []byte) (bool, error) { return p.inner.Has(key) }

func (p *SnappyProvider) Close() error { return p.inner.Close() }

func (p *SnappyProvider) Batch() DatabaseBatch {
	return &snappyBatch{inner: p.inner.Batch()}
}

func (p *SnappyProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	it, ok := p.inner.(IterableProvider)
	if !ok {
		return fmt.Errorf("underlying provider %T cannot iterate", p.inner)
	}
	var decodeErr error
	err := it.IteratePrefix(prefix, func(key, raw []byte) bool {
		v, err := decode(key, raw)
		if err != nil {
			decodeErr = err
			return false
		}
		return callback(key, v)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

type snappyBatch struct {
	inner DatabaseBatch
}

func (b *snappyBatch) Put(key, value []byte) { b.inner.Put(key, snappy.Encode(nil, value)) }
func (b *snappyBatch) Delete(key []byte)     { b.inner.Delete(key) }
func (b *snappyBatch) Write() error          { return b.inner.Write() }
func (b *snappyBatch) Reset()                { b.inner.Reset() }
func (b *snappyBatch) Close()                { b.inner.Close() }
