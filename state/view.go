package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// View is the typed handle every operation receives. It reads and writes through an
// Overlay; values are RLP encoded.
type View struct {
	*Overlay
}

func NewView(o *Overlay) *View {
	return &View{Overlay: o}
}

type accountRecord struct {
	Nonce   uint64
	Balance *uint256.Int
}

func (v *View) getRLP(key []byte, out interface{}) (bool, error) {
	raw, err := v.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (v *View) putRLP(key []byte, val interface{}) error {
	raw, err := rlp.EncodeToBytes(val)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	v.Put(key, raw)
	return nil
}

// Account returns the account at addr, or an empty one if it does not exist.
func (v *View) Account(addr common.Address) (*types.Account, error) {
	var rec accountRecord
	found, err := v.getRLP(AccountKey(addr), &rec)
	if err != nil {
		return nil, err
	}
	acc := types.NewAccount(addr)
	if found {
		acc.Nonce = rec.Nonce
		if rec.Balance != nil {
			acc.Balance = rec.Balance
		}
	}
	return acc, nil
}

// AccountExists reports whether addr has a stored account record.
func (v *View) AccountExists(addr common.Address) (bool, error) {
	raw, err := v.Get(AccountKey(addr))
	return raw != nil, err
}

// SetAccount stores acc; an empty account is removed.
func (v *View) SetAccount(acc *types.Account) error {
	if acc.IsEmpty() {
		v.Delete(AccountKey(acc.Address))
		return nil
	}
	return v.putRLP(AccountKey(acc.Address), &accountRecord{Nonce: acc.Nonce, Balance: acc.Balance})
}

func (v *View) Balance(addr common.Address) (*uint256.Int, error) {
	acc, err := v.Account(addr)
	if err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

func (v *View) TotalIssuance() (*uint256.Int, error) {
	total := uint256.NewInt(0)
	if _, err := v.getRLP([]byte(KeyTotalIssuance), total); err != nil {
		return nil, err
	}
	return total, nil
}

func (v *View) SetTotalIssuance(total *uint256.Int) error {
	return v.putRLP([]byte(KeyTotalIssuance), total)
}

func (v *View) addresses(key string) ([]common.Address, error) {
	var out []common.Address
	if _, err := v.getRLP([]byte(key), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *View) setAddresses(key string, addrs []common.Address) error {
	if addrs == nil {
		addrs = []common.Address{}
	}
	return v.putRLP([]byte(key), addrs)
}

// Validators is the governance-managed validator list used at the next rotation.
func (v *View) Validators() ([]common.Address, error) { return v.addresses(KeyValidators) }

func (v *View) SetValidators(addrs []common.Address) error {
	return v.setAddresses(KeyValidators, addrs)
}

// ActiveValidators is the validator set of the current session, in authority index order.
func (v *View) ActiveValidators() ([]common.Address, error) { return v.addresses(KeySessionActive) }

func (v *View) SetActiveValidators(addrs []common.Address) error {
	return v.setAddresses(KeySessionActive, addrs)
}

func (v *View) TechnicalCommittee() ([]common.Address, error) { return v.addresses(KeyTechCommittee) }

func (v *View) SetTechnicalCommittee(addrs []common.Address) error {
	return v.setAddresses(KeyTechCommittee, addrs)
}

func (v *View) Council() ([]common.Address, error) { return v.addresses(KeyCouncil) }

func (v *View) SetCouncil(addrs []common.Address) error { return v.setAddresses(KeyCouncil, addrs) }

// SessionKeys returns the current-session keys of addr.
func (v *View) SessionKeys(addr common.Address) (types.SessionKeys, bool, error) {
	var keys types.SessionKeys
	found, err := v.getRLP(SessionKeysKey(addr), &keys)
	return keys, found, err
}

func (v *View) SetSessionKeys(addr common.Address, keys types.SessionKeys) error {
	return v.putRLP(SessionKeysKey(addr), &keys)
}

// QueuedKeys returns keys registered with set_keys that take effect at the next rotation.
func (v *View) QueuedKeys(addr common.Address) (types.SessionKeys, bool, error) {
	var keys types.SessionKeys
	found, err := v.getRLP(QueuedKeysKey(addr), &keys)
	return keys, found, err
}

func (v *View) SetQueuedKeys(addr common.Address, keys types.SessionKeys) error {
	return v.putRLP(QueuedKeysKey(addr), &keys)
}

func (v *View) ClearQueuedKeys(addr common.Address) { v.Delete(QueuedKeysKey(addr)) }

func (v *View) keyList(key string) ([]types.SessionKey, error) {
	var out []types.SessionKey
	if _, err := v.getRLP([]byte(key), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *View) setKeyList(key string, keys []types.SessionKey) error {
	if keys == nil {
		keys = []types.SessionKey{}
	}
	return v.putRLP([]byte(key), keys)
}

// AuraAuthorities are the block production keys in authority index order.
func (v *View) AuraAuthorities() ([]types.SessionKey, error) { return v.keyList(KeyAuraAuthorities) }

func (v *View) SetAuraAuthorities(keys []types.SessionKey) error {
	return v.setKeyList(KeyAuraAuthorities, keys)
}

func (v *View) GrandpaAuthorities() ([]types.SessionKey, error) { return v.keyList(KeyGrandpaAuths) }

func (v *View) SetGrandpaAuthorities(keys []types.SessionKey) error {
	return v.setKeyList(KeyGrandpaAuths, keys)
}

func (v *View) ImOnlineKeys() ([]types.SessionKey, error) { return v.keyList(KeyImOnlineKeys) }

func (v *View) SetImOnlineKeys(keys []types.SessionKey) error {
	return v.setKeyList(KeyImOnlineKeys, keys)
}

// SudoKey returns the root account, if one is configured.
func (v *View) SudoKey() (common.Address, bool, error) {
	var addr common.Address
	found, err := v.getRLP([]byte(KeySudoKey), &addr)
	return addr, found, err
}

func (v *View) SetSudoKey(addr common.Address) error {
	return v.putRLP([]byte(KeySudoKey), addr)
}

func (v *View) Code() ([]byte, error) { return v.Get([]byte(KeyCode)) }

// SetCode stores the runtime code unencoded.
func (v *View) SetCode(code []byte) { v.Put([]byte(KeyCode), code) }

func (v *View) uint64At(key string) (uint64, error) {
	var n uint64
	_, err := v.getRLP([]byte(key), &n)
	return n, err
}

func (v *View) setUint64(key string, n uint64) error { return v.putRLP([]byte(key), n) }

func (v *View) BlockNumber() (uint64, error) { return v.uint64At(KeyBlockNumber) }

func (v *View) SetBlockNumber(n uint64) error { return v.setUint64(KeyBlockNumber, n) }

func (v *View) SessionIndex() (uint64, error) { return v.uint64At(KeySessionIndex) }

func (v *View) SetSessionIndex(n uint64) error { return v.setUint64(KeySessionIndex, n) }

// BlockWeight is the weight consumed so far in the block being built.
func (v *View) BlockWeight() (types.Weight, error) {
	n, err := v.uint64At(KeyBlockWeight)
	return types.Weight(n), err
}

func (v *View) SetBlockWeight(w types.Weight) error { return v.setUint64(KeyBlockWeight, uint64(w)) }

// ExtrinsicsLen is the encoded length of the extrinsics applied so far in this block.
func (v *View) ExtrinsicsLen() (uint64, error) { return v.uint64At(KeyExtrinsicsLen) }

func (v *View) SetExtrinsicsLen(n uint64) error { return v.setUint64(KeyExtrinsicsLen, n) }

// ResetBlockCounters clears the per-block accumulators.
func (v *View) ResetBlockCounters() {
	v.Delete([]byte(KeyBlockWeight))
	v.Delete([]byte(KeyExtrinsicsLen))
}

func (v *View) BlockHash(number uint64) (common.Hash, bool, error) {
	var h common.Hash
	found, err := v.getRLP(BlockHashKey(number), &h)
	return h, found, err
}

func (v *View) SetBlockHash(number uint64, h common.Hash) error {
	return v.putRLP(BlockHashKey(number), h)
}

// GenesisHash is the hash recorded for block zero.
func (v *View) GenesisHash() (common.Hash, error) {
	h, _, err := v.BlockHash(0)
	return h, err
}

func (v *View) ParentHash() (common.Hash, error) {
	var h common.Hash
	_, err := v.getRLP([]byte(KeyParentHash), &h)
	return h, err
}

func (v *View) SetParentHash(h common.Hash) error { return v.putRLP([]byte(KeyParentHash), h) }

func (v *View) BaseFeePerGas() (*uint256.Int, error) {
	fee := uint256.NewInt(0)
	_, err := v.getRLP([]byte(KeyBaseFeePerGas), fee)
	return fee, err
}

func (v *View) SetBaseFeePerGas(fee *uint256.Int) error {
	return v.putRLP([]byte(KeyBaseFeePerGas), fee)
}

// Elasticity is in parts per million.
func (v *View) Elasticity() (uint32, error) {
	var e uint32
	_, err := v.getRLP([]byte(KeyElasticity), &e)
	return e, err
}

func (v *View) SetElasticity(permill uint32) error {
	return v.putRLP([]byte(KeyElasticity), permill)
}

// PutUint64 stores a bare counter for subsystems without a typed accessor.
func (v *View) PutUint64(key string, n uint64) error { return v.setUint64(key, n) }

func (v *View) Uint64(key string) (uint64, error) { return v.uint64At(key) }
