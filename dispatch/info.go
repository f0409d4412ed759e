package dispatch

import (
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
)

// CallInfo returns the pre-dispatch weight, class and fee mode of call.
func (c Config) CallInfo(call transaction.Call) types.DispatchInfo {
	w := c.Calls
	switch call := call.(type) {
	case *transaction.Transfer:
		return types.DispatchInfo{Weight: w.Transfer, Class: types.DispatchNormal, PaysFee: true}
	case *transaction.TransferKeepAlive:
		return types.DispatchInfo{Weight: w.TransferKeepAlive, Class: types.DispatchNormal, PaysFee: true}
	case *transaction.Remark:
		return types.DispatchInfo{
			Weight:  w.Remark + w.RemarkPerByte*types.Weight(len(call.Data)),
			Class:   types.DispatchNormal,
			PaysFee: true,
		}
	case *transaction.SetKeys:
		return types.DispatchInfo{Weight: w.SetKeys, Class: types.DispatchNormal, PaysFee: true}
	case *transaction.AddValidator:
		return types.DispatchInfo{Weight: w.AddValidator, Class: types.DispatchNormal, PaysFee: true}
	case *transaction.RemoveValidator:
		return types.DispatchInfo{Weight: w.RemoveValidator, Class: types.DispatchNormal, PaysFee: true}
	case *transaction.SudoCall:
		inner := c.CallInfo(call.Inner)
		return types.DispatchInfo{Weight: inner.Weight + w.Sudo, Class: inner.Class, PaysFee: true}
	case *transaction.EthereumTransact:
		if call.Tx == nil {
			return types.DispatchInfo{Class: types.DispatchNormal}
		}
		return types.DispatchInfo{Weight: c.gasToWeight(call.Tx.Gas()), Class: types.DispatchNormal, PaysFee: true}
	}
	return types.DispatchInfo{Class: types.DispatchNormal, PaysFee: true}
}
