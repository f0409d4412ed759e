package store

import (
	"fmt"
	"path/filepath"

	"github.com/globalfoundation/gnf/db"
)

// StoreType names the key-value engine backing a node's stores.
type StoreType string

const (
	LevelDBStoreType StoreType = "leveldb"
	PebbleStoreType  StoreType = "pebble"
	BoltStoreType    StoreType = "bolt"
	// MemoryStoreType keeps nothing across restarts
	MemoryStoreType StoreType = "memory"
)

// StoreConfig is the [store] section of the node config.
type StoreConfig struct {
	Type StoreType `json:"type" yaml:"type" ini:"type"`

	// Directory holds the database files; unused by the memory engine
	Directory string `json:"directory" yaml:"directory" ini:"directory"`

	// Compress stores values snappy-compressed
	Compress bool `json:"compress" yaml:"compress" ini:"compress"`
}

func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store: type is required")
	}

	switch sc.Type {
	case LevelDBStoreType, PebbleStoreType, BoltStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("store: %s engine needs a directory", sc.Type)
		}
		return nil
	case MemoryStoreType:
		return nil
	default:
		return fmt.Errorf("store: unknown engine %q", sc.Type)
	}
}

// Stores bundles every store of a node over one shared provider.
type Stores struct {
	Provider  db.IterableProvider
	State     StateStore
	Blocks    BlockStore
	TxMetas   TxMetaStore
	StateMeta StateMetaStore
	TxManager *db.DBTxManager
}

// Close closes the shared provider once.
func (s *Stores) Close() error {
	return s.Provider.Close()
}

// StoreFactory opens providers by engine type.
type StoreFactory struct{}

func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateStoreWithProvider opens the configured provider and builds the store set on it.
func (sf *StoreFactory) CreateStoreWithProvider(config *StoreConfig) (*Stores, error) {
	provider, err := sf.CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("open provider: %w", err)
	}
	return NewStores(provider)
}

// NewStores builds the store set over an existing provider.
func NewStores(provider db.IterableProvider) (*Stores, error) {
	stateStore, err := NewGenericStateStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create state store: %w", err)
	}
	blkStore, err := NewGenericBlockStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create block store: %w", err)
	}
	txMetaStore, err := NewGenericTxMetaStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction meta store: %w", err)
	}
	return &Stores{
		Provider:  provider,
		State:     stateStore,
		Blocks:    blkStore,
		TxMetas:   txMetaStore,
		StateMeta: NewGenericStateMetaStore(provider),
		TxManager: db.NewDBTxManager(provider),
	}, nil
}

// CreateProvider opens the engine named by config, wrapped in snappy when Compress is set.
func (sf *StoreFactory) CreateProvider(config *StoreConfig) (db.IterableProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("store: nil config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		provider db.IterableProvider
		err      error
	)
	switch config.Type {
	case LevelDBStoreType:
		provider, err = db.NewLevelDBProvider(config.Directory)
	case PebbleStoreType:
		provider, err = db.NewPebbleProvider(config.Directory)
	case BoltStoreType:
		provider, err = db.NewBoltProvider(filepath.Join(config.Directory, "gnf.bolt"))
	case MemoryStoreType:
		provider = db.NewMemoryProvider()
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	if config.Compress {
		return db.NewSnappyProvider(provider), nil
	}
	return provider, nil
}

var globalFactory = NewStoreFactory()

// CreateStore opens the full store set described by config.
func CreateStore(config *StoreConfig) (*Stores, error) {
	return globalFactory.CreateStoreWithProvider(config)
}
