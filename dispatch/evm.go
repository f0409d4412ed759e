package dispatch

import (
	"math"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// evmPlan is what applying a validated Ethereum transaction needs to charge it.
type evmPlan struct {
	sender  common.Address
	account *types.Account
	baseFee *uint256.Int
	price   *uint256.Int
}

// IntrinsicGas is the gas an Ethereum transaction costs before any execution.
func IntrinsicGas(tx *ethtypes.Transaction) (uint64, bool) {
	gas := new(uint256.Int)
	creation := tx.To() == nil
	if creation {
		gas.SetUint64(params.TxGasContractCreation)
	} else {
		gas.SetUint64(params.TxGas)
	}

	data := tx.Data()
	var nonZero uint64
	for _, b := range data {
		if b != 0 {
			nonZero++
		}
	}
	zero := uint64(len(data)) - nonZero
	gas.Add(gas, mulU(nonZero, params.TxDataNonZeroGasEIP2028))
	gas.Add(gas, mulU(zero, params.TxDataZeroGas))
	if creation {
		words := (uint64(len(data)) + 31) / 32
		gas.Add(gas, mulU(words, params.InitCodeWordGas))
	}

	accessList := tx.AccessList()
	gas.Add(gas, mulU(uint64(len(accessList)), params.TxAccessListAddressGas))
	gas.Add(gas, mulU(uint64(accessList.StorageKeys()), params.TxAccessListStorageKeyGas))

	if !gas.IsUint64() {
		return math.MaxUint64, false
	}
	return gas.Uint64(), true
}

func mulU(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// effectiveGasPrice is what each unit of gas actually costs: the base fee plus the tip,
// capped by the fee cap.
func effectiveGasPrice(tx *ethtypes.Transaction, baseFee *uint256.Int) *uint256.Int {
	feeCap, _ := uint256.FromBig(tx.GasFeeCap())
	tipCap, _ := uint256.FromBig(tx.GasTipCap())
	price, overflow := new(uint256.Int).AddOverflow(baseFee, tipCap)
	if overflow || price.Gt(feeCap) {
		return feeCap
	}
	return price
}

// validateEthereum runs the self-contained checks against the recovered sender. With
// strict set the nonce must match exactly, as required when applying.
func (d *Dispatcher) validateEthereum(view *state.View, sender common.Address, tx *ethtypes.Transaction,
	info types.DispatchInfo, length int, strict bool) (Validity, *evmPlan, error) {
	v := newValidity()

	switch tx.Type() {
	case ethtypes.BlobTxType, ethtypes.SetCodeTxType:
		return v, nil, errors.NewInvalidf(errors.ErrCodeCallFiltered, "ethereum transaction type %d is not supported", tx.Type())
	}

	if tx.Protected() {
		if id := tx.ChainId(); !id.IsUint64() || id.Uint64() != d.cfg.ChainID {
			return v, nil, errors.NewInvalidf(errors.ErrCodeInvalidChainID, "chain id %s, expected %d", id, d.cfg.ChainID)
		}
	}

	if limit := d.cfg.BlockGasLimit(); tx.Gas() > limit {
		return v, nil, errors.NewInvalidf(errors.ErrCodeGasLimitTooHigh, "gas limit %d exceeds block gas limit %d", tx.Gas(), limit)
	}
	intrinsic, ok := IntrinsicGas(tx)
	if !ok || tx.Gas() < intrinsic {
		return v, nil, errors.NewInvalidf(errors.ErrCodeGasLimitTooLow, "gas limit %d below intrinsic gas %d", tx.Gas(), intrinsic)
	}

	baseFee, err := view.BaseFeePerGas()
	if err != nil {
		return v, nil, err
	}
	feeCap, overflow := uint256.FromBig(tx.GasFeeCap())
	if overflow {
		return v, nil, errors.NewInvalid(errors.ErrCodePayment, "fee cap overflows")
	}
	tipCap, overflow := uint256.FromBig(tx.GasTipCap())
	if overflow {
		return v, nil, errors.NewInvalid(errors.ErrCodePayment, "tip cap overflows")
	}
	if feeCap.Lt(baseFee) {
		return v, nil, errors.NewInvalidf(errors.ErrCodeGasPriceTooLow, "fee cap %s below base fee %s", feeCap, baseFee)
	}
	if tipCap.Gt(feeCap) {
		return v, nil, errors.NewInvalidf(errors.ErrCodeGasPriceTooLow, "tip cap %s above fee cap %s", tipCap, feeCap)
	}

	acc, err := view.Account(sender)
	if err != nil {
		return v, nil, err
	}
	if tx.Nonce() < acc.Nonce {
		return v, nil, errors.NewInvalidf(errors.ErrCodeStale, "nonce %d, account is at %d", tx.Nonce(), acc.Nonce)
	}
	if tx.Nonce() > acc.Nonce {
		if strict {
			return v, nil, errors.NewInvalidf(errors.ErrCodeFuture, "nonce %d, account is at %d", tx.Nonce(), acc.Nonce)
		}
		v.Requires = append(v.Requires, nonceTag(sender, tx.Nonce()-1))
	}
	v.Provides = append(v.Provides, nonceTag(sender, tx.Nonce()))

	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return v, nil, errors.NewInvalid(errors.ErrCodePayment, "value overflows")
	}
	upfront, o1 := new(uint256.Int).MulOverflow(uint256.NewInt(tx.Gas()), feeCap)
	_, o2 := upfront.AddOverflow(upfront, value)
	if o1 || o2 || acc.Balance.Lt(upfront) {
		return v, nil, errors.NewInvalidf(errors.ErrCodePayment, "balance %s below gas and value %s", acc.Balance, upfront)
	}

	if err := checkWeight(d.cfg, view, info, length); err != nil {
		return v, nil, err
	}

	price := effectiveGasPrice(tx, baseFee)
	tip := new(uint256.Int).Sub(price, baseFee)
	v.Priority = math.MaxUint64
	if tip.IsUint64() {
		v.Priority = tip.Uint64()
	}
	return v, &evmPlan{sender: sender, account: acc, baseFee: baseFee, price: price}, nil
}

// gasUsed converts the executor's reported weight back to gas, bounded by the limit.
func (d *Dispatcher) gasUsed(tx *ethtypes.Transaction, post types.PostDispatchInfo) uint64 {
	if post.ActualWeight == nil {
		return tx.Gas()
	}
	w := uint64(*post.ActualWeight)
	used := w / d.cfg.WeightPerGas
	if w%d.cfg.WeightPerGas != 0 {
		used++
	}
	if used > tx.Gas() {
		return tx.Gas()
	}
	return used
}
