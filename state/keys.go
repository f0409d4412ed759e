package state

import (
	"encoding/binary"

	"github.com/globalfoundation/gnf/common"
)

// Storage key layout. Keys are "<module>:<item>[:<suffix>]".
const (
	KeyCode = ":code"

	prefixAccount      = "system:account:"
	prefixBlockHash    = "system:block_hash:"
	KeyBlockNumber     = "system:number"
	KeyBlockWeight     = "system:block_weight"
	KeyExtrinsicsLen   = "system:all_extrinsics_len"
	KeyParentHash      = "system:parent_hash"
	KeyTotalIssuance   = "balances:total_issuance"
	KeyValidators      = "validator_set:validators"
	KeySessionIndex    = "session:current_index"
	KeySessionActive   = "session:validators"
	prefixSessionKeys  = "session:next_keys:"
	prefixQueuedKeys   = "session:queued_keys:"
	KeyAuraAuthorities = "aura:authorities"
	KeyGrandpaAuths    = "grandpa:authorities"
	KeyImOnlineKeys    = "im_online:keys"
	KeySudoKey         = "sudo:key"
	KeyTechCommittee   = "technical_committee:members"
	KeyCouncil         = "council:members"
	KeyDemocracyRefs   = "democracy:referendum_count"
	KeyDemocracyProps  = "democracy:public_prop_count"
	KeyDemocracyUnbake = "democracy:lowest_unbaked"
	KeyTreasuryProps   = "treasury:proposal_count"
	KeyTreasuryApprove = "treasury:approvals"
	KeyFeeMultiplier   = "transaction_payment:next_fee_multiplier"
	KeyBaseFeePerGas   = "base_fee:base_fee_per_gas"
	KeyElasticity      = "base_fee:elasticity"
)

func AccountKey(addr common.Address) []byte {
	return append([]byte(prefixAccount), addr[:]...)
}

func BlockHashKey(number uint64) []byte {
	key := make([]byte, len(prefixBlockHash)+8)
	copy(key, prefixBlockHash)
	binary.BigEndian.PutUint64(key[len(prefixBlockHash):], number)
	return key
}

// SessionKeysKey holds the keys an account uses in the current session.
func SessionKeysKey(addr common.Address) []byte {
	return append([]byte(prefixSessionKeys), addr[:]...)
}

// QueuedKeysKey holds keys set during this session, applied at the next rotation.
func QueuedKeysKey(addr common.Address) []byte {
	return append([]byte(prefixQueuedKeys), addr[:]...)
}
