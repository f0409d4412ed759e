package authorship

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
)

// Mode selects how an authority index becomes an address.
type Mode string

const (
	// ModeSessionKey truncates the author's block production key to an address.
	ModeSessionKey Mode = "session_key"
	// ModeAccount uses the validator account itself.
	ModeAccount Mode = "account"
)

// Snapshot is the authority set as of the block being finalized, in index order.
type Snapshot struct {
	Validators []common.Address
	Keys       map[common.Address]types.SessionKeys
}

// AuraKey returns the production key of the validator at index i.
func (s Snapshot) AuraKey(i uint32) (types.SessionKey, bool) {
	if int(i) >= len(s.Validators) {
		return types.SessionKey{}, false
	}
	keys, ok := s.Keys[s.Validators[i]]
	if !ok {
		return types.SessionKey{}, false
	}
	return keys.Aura, true
}

// LoadSnapshot reads the active validators and their current keys.
func LoadSnapshot(view *state.View) (Snapshot, error) {
	vals, err := view.ActiveValidators()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load active validators: %w", err)
	}
	snap := Snapshot{Validators: vals, Keys: make(map[common.Address]types.SessionKeys, len(vals))}
	for _, v := range vals {
		keys, found, err := view.SessionKeys(v)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load keys of %s: %w", v, err)
		}
		if found {
			snap.Keys[v] = keys
		}
	}
	return snap, nil
}

// Finder resolves the block author from header digests. A false result means no author,
// which is a valid outcome.
type Finder interface {
	FindAuthor(digests []types.DigestItem, snap Snapshot) (common.Address, bool)
}

// TruncatedKeyAuthor takes bytes 4 to 24 of the author's Aura key as its address.
type TruncatedKeyAuthor struct{}

func (TruncatedKeyAuthor) FindAuthor(digests []types.DigestItem, snap Snapshot) (common.Address, bool) {
	idx, ok := AuthorityIndex(digests, len(snap.Validators))
	if !ok {
		return common.Address{}, false
	}
	key, ok := snap.AuraKey(idx)
	if !ok {
		return common.Address{}, false
	}
	raw := key.Bytes()
	if len(raw) < 24 {
		return common.Address{}, false
	}
	return common.BytesToAddress(raw[4:24]), true
}

// AccountAuthor returns the validator account at the authority index.
type AccountAuthor struct{}

func (AccountAuthor) FindAuthor(digests []types.DigestItem, snap Snapshot) (common.Address, bool) {
	idx, ok := AuthorityIndex(digests, len(snap.Validators))
	if !ok {
		return common.Address{}, false
	}
	return snap.Validators[idx], true
}

// NewFinder returns the finder for mode; unknown modes are an error.
func NewFinder(mode Mode) (Finder, error) {
	switch mode {
	case ModeSessionKey, "":
		return TruncatedKeyAuthor{}, nil
	case ModeAccount:
		return AccountAuthor{}, nil
	}
	return nil, fmt.Errorf("unknown author mode %q", mode)
}
