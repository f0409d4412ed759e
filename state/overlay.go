package state

import (
	"errors"
	"sort"
	"sync"
)

// Reader is the read side of a committed store. A missing key reads as (nil, nil).
type Reader interface {
	Get(key []byte) ([]byte, error)
}

var ErrNoLayer = errors.New("no open overlay layer")

// Change is one pending write. Deleted changes carry a nil Value.
type Change struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

type entry struct {
	value   []byte
	deleted bool
}

// Overlay buffers writes over a Reader. Writes land in the innermost layer; Begin opens a
// nested layer that is later merged by Commit or discarded by Rollback. Nothing reaches
// the base until the caller flushes Changes.
type Overlay struct {
	mu     sync.RWMutex
	base   Reader
	layers []map[string]entry
}

// NewOverlay creates an overlay with one root layer. A nil base behaves as an empty store.
func NewOverlay(base Reader) *Overlay {
	return &Overlay{base: base, layers: []map[string]entry{{}}}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	k := string(key)
	for i := len(o.layers) - 1; i >= 0; i-- {
		if e, ok := o.layers[i][k]; ok {
			if e.deleted {
				return nil, nil
			}
			return e.value, nil
		}
	}
	if o.base == nil {
		return nil, nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Put(key, value []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	o.layers[len(o.layers)-1][string(key)] = entry{value: cp}
}

func (o *Overlay) Delete(key []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.layers[len(o.layers)-1][string(key)] = entry{deleted: true}
}

// Begin opens a nested layer.
func (o *Overlay) Begin() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.layers = append(o.layers, map[string]entry{})
}

// Commit merges the innermost nested layer into its parent.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.layers)
	if n < 2 {
		return ErrNoLayer
	}
	top, parent := o.layers[n-1], o.layers[n-2]
	for k, e := range top {
		parent[k] = e
	}
	o.layers = o.layers[:n-1]
	return nil
}

// Rollback discards the innermost nested layer.
func (o *Overlay) Rollback() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.layers)
	if n < 2 {
		return ErrNoLayer
	}
	o.layers = o.layers[:n-1]
	return nil
}

// Depth is the number of open nested layers.
func (o *Overlay) Depth() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.layers) - 1
}

// Changes flattens every layer into a key-sorted change list.
func (o *Overlay) Changes() []Change {
	o.mu.RLock()
	defer o.mu.RUnlock()
	merged := make(map[string]entry)
	for _, layer := range o.layers {
		for k, e := range layer {
			merged[k] = e
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Change, 0, len(keys))
	for _, k := range keys {
		e := merged[k]
		out = append(out, Change{Key: []byte(k), Value: e.value, Deleted: e.deleted})
	}
	return out
}

// Clone copies the pending writes into an independent overlay over the same base.
func (o *Overlay) Clone() *Overlay {
	o.mu.RLock()
	defer o.mu.RUnlock()
	layers := make([]map[string]entry, len(o.layers))
	for i, layer := range o.layers {
		cp := make(map[string]entry, len(layer))
		for k, e := range layer {
			cp[k] = e
		}
		layers[i] = cp
	}
	return &Overlay{base: o.base, layers: layers}
}
