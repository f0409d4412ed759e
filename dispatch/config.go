package dispatch

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

const (
	SpecVersion    uint32 = 102
	TxVersion      uint32 = 1
	ChainID        uint64 = 1013
	WeightPerGas   uint64 = 20_000
	BlockHashCount uint64 = 2400
)

// BlockWeights bounds the ref-time spent per block.
type BlockWeights struct {
	MaxBlock            types.Weight `ini:"max_block"`
	NormalRatio         uint64       `ini:"normal_ratio"`
	ExtrinsicBaseWeight types.Weight `ini:"extrinsic_base"`
}

// MaxFor returns the weight available to a dispatch class.
func (w BlockWeights) MaxFor(class types.DispatchClass) types.Weight {
	if class == types.DispatchNormal {
		return w.MaxBlock * types.Weight(w.NormalRatio) / 100
	}
	return w.MaxBlock
}

// BlockLength bounds the encoded size of a block's extrinsics.
type BlockLength struct {
	Max         uint64 `ini:"max"`
	NormalRatio uint64 `ini:"normal_ratio"`
}

func (l BlockLength) MaxFor(class types.DispatchClass) uint64 {
	if class == types.DispatchNormal {
		return l.Max * l.NormalRatio / 100
	}
	return l.Max
}

// CallWeights are the benchmarked weights of the native calls.
type CallWeights struct {
	Transfer          types.Weight `ini:"transfer"`
	TransferKeepAlive types.Weight `ini:"transfer_keep_alive"`
	Remark            types.Weight `ini:"remark"`
	RemarkPerByte     types.Weight `ini:"remark_per_byte"`
	SetKeys           types.Weight `ini:"set_keys"`
	AddValidator      types.Weight `ini:"add_validator"`
	RemoveValidator   types.Weight `ini:"remove_validator"`
	Sudo              types.Weight `ini:"sudo"`
}

func DefaultCallWeights() CallWeights {
	return CallWeights{
		Transfer:          195_000_000,
		TransferKeepAlive: 150_000_000,
		Remark:            2_000_000,
		RemarkPerByte:     500,
		SetKeys:           50_000_000,
		AddValidator:      40_000_000,
		RemoveValidator:   40_000_000,
		Sudo:              10_000_000,
	}
}

// Config carries every constant the check chain and EVM validation read.
type Config struct {
	SpecVersion    uint32
	TxVersion      uint32
	GenesisHash    common.Hash
	ChainID        uint64
	Weights        BlockWeights
	Length         BlockLength
	Calls          CallWeights
	WeightPerGas   uint64
	BlockHashCount uint64

	// OperationalFeeMultiplier boosts the priority of operational calls.
	OperationalFeeMultiplier uint64
}

// DefaultConfig returns the runtime constants for a chain with the given genesis hash.
func DefaultConfig(genesis common.Hash) Config {
	return Config{
		SpecVersion: SpecVersion,
		TxVersion:   TxVersion,
		GenesisHash: genesis,
		ChainID:     ChainID,
		Weights: BlockWeights{
			MaxBlock:            2 * types.WeightRefTimePerSecond,
			NormalRatio:         75,
			ExtrinsicBaseWeight: 86_298_000,
		},
		Length:                   BlockLength{Max: 5 * 1024 * 1024, NormalRatio: 75},
		Calls:                    DefaultCallWeights(),
		WeightPerGas:             WeightPerGas,
		BlockHashCount:           BlockHashCount,
		OperationalFeeMultiplier: 5,
	}
}

// BlockGasLimit is the normal-class share of one second of ref time expressed in gas.
func (c Config) BlockGasLimit() uint64 {
	if c.WeightPerGas == 0 {
		return 0
	}
	return uint64(types.WeightRefTimePerSecond) * c.Weights.NormalRatio / 100 / c.WeightPerGas
}

func (c Config) Validate() error {
	if c.Weights.NormalRatio == 0 || c.Weights.NormalRatio > 100 {
		return fmt.Errorf("weights normal ratio must be in 1..100, got %d", c.Weights.NormalRatio)
	}
	if c.Length.NormalRatio == 0 || c.Length.NormalRatio > 100 {
		return fmt.Errorf("length normal ratio must be in 1..100, got %d", c.Length.NormalRatio)
	}
	if c.WeightPerGas == 0 {
		return fmt.Errorf("weight per gas must be positive")
	}
	if c.BlockHashCount == 0 {
		return fmt.Errorf("block hash count must be positive")
	}
	return nil
}

// gasToWeight never overflows: gas above the block gas limit is rejected before use.
func (c Config) gasToWeight(gas uint64) types.Weight {
	w := new(uint256.Int).Mul(uint256.NewInt(gas), uint256.NewInt(c.WeightPerGas))
	if !w.IsUint64() {
		return types.Weight(^uint64(0))
	}
	return types.Weight(w.Uint64())
}
