package store

import (
	"fmt"

	"github.com/globalfoundation/gnf/db"
	"github.com/globalfoundation/gnf/state"
)

// StateStore persists the committed runtime storage. It is the base reader under every
// block's overlay.
type StateStore interface {
	state.Reader
	WriteChanges(batch db.DatabaseBatch, changes []state.Change)
	Iterate(fn func(key, value []byte) bool) error
	IsEmpty() (bool, error)
}

type GenericStateStore struct {
	provider db.DatabaseProvider
}

func NewGenericStateStore(provider db.DatabaseProvider) (*GenericStateStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &GenericStateStore{provider: provider}, nil
}

func stateKey(key []byte) []byte {
	out := make([]byte, 0, len(PrefixState)+len(key))
	out = append(out, PrefixState...)
	return append(out, key...)
}

func (s *GenericStateStore) Get(key []byte) ([]byte, error) {
	v, err := s.provider.Get(stateKey(key))
	if err != nil {
		return nil, fmt.Errorf("read state %q: %w", key, err)
	}
	return v, nil
}

// WriteChanges stages an overlay's net changes into batch.
func (s *GenericStateStore) WriteChanges(batch db.DatabaseBatch, changes []state.Change) {
	for _, c := range changes {
		if c.Deleted {
			batch.Delete(stateKey(c.Key))
			continue
		}
		batch.Put(stateKey(c.Key), c.Value)
	}
}

// Iterate visits the committed storage in key order, with the prefix stripped.
func (s *GenericStateStore) Iterate(fn func(key, value []byte) bool) error {
	it, ok := s.provider.(db.IterableProvider)
	if !ok {
		return fmt.Errorf("provider %T cannot iterate", s.provider)
	}
	return it.IteratePrefix([]byte(PrefixState), func(key, value []byte) bool {
		return fn(key[len(PrefixState):], value)
	})
}

func (s *GenericStateStore) IsEmpty() (bool, error) {
	code, err := s.Get([]byte(state.KeyCode))
	return code == nil, err
}
