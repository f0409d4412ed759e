package types

const (
	TxStatusFailed  = 0
	TxStatusSuccess = 1
)

// TransactionMeta is the execution record of one extrinsic in a block.
type TransactionMeta struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	Sender      string `json:"sender"`
	Status      int32  `json:"status"`
	Error       string `json:"error"`
	Fee         string `json:"fee"`
	Tip         string `json:"tip"`
}
