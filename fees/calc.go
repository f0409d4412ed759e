package fees

import (
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// Calculator prices native extrinsics. Weight and length map to fee one to one and the
// fee multiplier is fixed at one.
type Calculator struct {
	ExtrinsicBaseWeight types.Weight
}

// InclusionFee is the fee charged before dispatch, excluding the tip.
func (c Calculator) InclusionFee(length int, weight types.Weight) *uint256.Int {
	fee := uint256.NewInt(uint64(c.ExtrinsicBaseWeight))
	fee.Add(fee, uint256.NewInt(uint64(weight)))
	return fee.Add(fee, uint256.NewInt(uint64(length)))
}

// ComputeFee returns the up-front charge for info. Calls that do not pay fees are free.
func (c Calculator) ComputeFee(length int, info types.DispatchInfo, tip *uint256.Int) Record {
	if !info.PaysFee {
		return NewRecord(nil, tip)
	}
	return NewRecord(c.InclusionFee(length, info.Weight), tip)
}

// ActualFee recomputes the charge using the post-dispatch weight. The difference to
// ComputeFee is refunded.
func (c Calculator) ActualFee(length int, info types.DispatchInfo, post types.PostDispatchInfo, tip *uint256.Int) Record {
	if !info.PaysFee || !post.PaysFee {
		return NewRecord(nil, tip)
	}
	return NewRecord(c.InclusionFee(length, post.CalcActualWeight(info)), tip)
}

// EVMCharge splits an Ethereum transaction's payment. price is the effective gas price;
// the part above baseFee is the tip.
func EVMCharge(gasUsed uint64, price, baseFee *uint256.Int) Record {
	used := uint256.NewInt(gasUsed)
	base := new(uint256.Int).Mul(used, baseFee)
	tip := uint256.NewInt(0)
	if price.Gt(baseFee) {
		tip.Sub(price, baseFee)
		tip.Mul(tip, used)
	}
	return Record{Base: base, Tip: tip}
}
