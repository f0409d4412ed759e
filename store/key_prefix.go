package store

// Database key prefixes. Every store shares one provider.
const (
	PrefixState = "state:"

	PrefixBlockMeta          = "blk_meta:"
	PrefixBlock              = "blk:"
	PrefixBlockNumberByHash  = "blk_hash:"
	BlockMetaKeyLatestNumber = "latest"

	PrefixTxMeta = "tx_meta:"

	PrefixStateHashByNumber = "state_hash:"
)
