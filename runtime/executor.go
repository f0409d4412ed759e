package runtime

import (
	"fmt"

	"github.com/globalfoundation/gnf/balances"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/dispatch"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/session"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
)

// Executor is the default call handler set of the chain.
type Executor struct {
	session      session.Config
	evm          EVMRunner
	weightPerGas uint64
}

var _ dispatch.Executor = (*Executor)(nil)

func NewExecutor(sessionCfg session.Config, evm EVMRunner, weightPerGas uint64) *Executor {
	if evm == nil {
		evm = TransferRunner{}
	}
	return &Executor{session: sessionCfg, evm: evm, weightPerGas: weightPerGas}
}

func (e *Executor) Dispatch(call transaction.Call, origin dispatch.Origin, view *state.View) (types.PostDispatchInfo, error) {
	paid := types.PostDispatchInfo{PaysFee: true}

	switch c := call.(type) {
	case *transaction.Transfer:
		who, err := ensureSigned(origin)
		if err != nil {
			return paid, err
		}
		return paid, balances.Transfer(view, who, c.Dest, c.Value, balances.AllowDeath)

	case *transaction.TransferKeepAlive:
		who, err := ensureSigned(origin)
		if err != nil {
			return paid, err
		}
		return paid, balances.Transfer(view, who, c.Dest, c.Value, balances.KeepAlive)

	case *transaction.Remark:
		switch origin.(type) {
		case dispatch.SignedOrigin, dispatch.RootOrigin:
			return paid, nil
		}
		return paid, errors.NewDispatch(errors.ErrCodeBadOrigin, "remark requires a signed or root origin")

	case *transaction.SetKeys:
		who, err := ensureSigned(origin)
		if err != nil {
			return paid, err
		}
		return paid, view.SetQueuedKeys(who, c.Keys)

	case *transaction.AddValidator:
		if err := ensureRoot(origin); err != nil {
			return paid, err
		}
		return paid, e.addValidator(view, c.Validator)

	case *transaction.RemoveValidator:
		if err := ensureRoot(origin); err != nil {
			return paid, err
		}
		return paid, e.removeValidator(view, c.Validator)

	case *transaction.SudoCall:
		return e.sudo(c, origin, view)

	case *transaction.EthereumTransact:
		o, ok := origin.(dispatch.EthereumTransactionOrigin)
		if !ok {
			return paid, errors.NewDispatch(errors.ErrCodeBadOrigin, "ethereum transact requires an ethereum transaction origin")
		}
		gasUsed, err := e.evm.Run(view, o.SignedInfo, c.Tx)
		actual := types.Weight(gasUsed * e.weightPerGas)
		return types.PostDispatchInfo{ActualWeight: &actual, PaysFee: true}, err
	}
	return paid, errors.NewDispatch(errors.ErrCodeBadOrigin, "no handler for call %T", call)
}

// sudo dispatches the inner call as root when signed by the sudo key. A successful sudo
// call is free.
func (e *Executor) sudo(c *transaction.SudoCall, origin dispatch.Origin, view *state.View) (types.PostDispatchInfo, error) {
	paid := types.PostDispatchInfo{PaysFee: true}
	who, err := ensureSigned(origin)
	if err != nil {
		return paid, err
	}
	key, ok, err := view.SudoKey()
	if err != nil {
		return paid, err
	}
	if !ok || key != who {
		return paid, errors.NewDispatch(errors.ErrCodeBadOrigin, "%s is not the sudo key", who)
	}
	if _, err := e.Dispatch(c.Inner, dispatch.RootOrigin{}, view); err != nil {
		return paid, fmt.Errorf("sudo %s: %w", c.Inner.Name(), err)
	}
	return types.PostDispatchInfo{PaysFee: false}, nil
}

func (e *Executor) addValidator(view *state.View, who common.Address) error {
	validators, err := view.Validators()
	if err != nil {
		return err
	}
	for _, v := range validators {
		if v == who {
			return errors.NewDispatch(errors.ErrCodeDuplicateAuthority, "%s is already a validator", who)
		}
	}
	if len(validators)+1 > e.session.MaxAuthorities {
		return errors.NewDispatch(errors.ErrCodeTooManyAuthorities, "validator set is full at %d", len(validators))
	}
	return view.SetValidators(append(validators, who))
}

func (e *Executor) removeValidator(view *state.View, who common.Address) error {
	validators, err := view.Validators()
	if err != nil {
		return err
	}
	idx := -1
	for i, v := range validators {
		if v == who {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.NewDispatch(errors.ErrCodeMissingAccount, "%s is not a validator", who)
	}
	if len(validators)-1 < e.session.MinAuthorities {
		return errors.NewDispatch(errors.ErrCodeTooFewAuthorities, "validator set cannot shrink below %d", e.session.MinAuthorities)
	}
	return view.SetValidators(append(validators[:idx:idx], validators[idx+1:]...))
}

func ensureSigned(origin dispatch.Origin) (common.Address, error) {
	if o, ok := origin.(dispatch.SignedOrigin); ok {
		return o.Who, nil
	}
	return common.Address{}, errors.NewDispatch(errors.ErrCodeBadOrigin, "call requires a signed origin")
}

func ensureRoot(origin dispatch.Origin) error {
	if _, ok := origin.(dispatch.RootOrigin); ok {
		return nil
	}
	return errors.NewDispatch(errors.ErrCodeBadOrigin, "call requires root")
}
