package db

// DatabaseProvider is the key-value backend every store is built on. Get returns nil, nil
// for a missing key.
type DatabaseProvider interface {
	Get(key []byte) ([]byte, error)

	// GetBatch returns the found keys only.
	GetBatch(keys [][]byte) (map[string][]byte, error)

	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)

	// Close is idempotent; several stores share one provider.
	Close() error

	// Batch returns a new batch for atomic writes.
	Batch() DatabaseBatch
}

// IterableProvider extends DatabaseProvider with ordered prefix iteration.
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix visits keys with prefix in ascending order until callback returns false.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// DatabaseBatch collects writes that land together on Write.
type DatabaseBatch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Write() error
	Reset()
	Close()
}

// prefixEnd returns the smallest key greater than every key starting with prefix, or nil
// when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

type writeOp struct {
	key    []byte
	value  []byte
	delete bool
}
