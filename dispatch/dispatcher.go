package dispatch

import (
	"fmt"

	"github.com/globalfoundation/gnf/balances"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/monitoring"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// ApplyOutcome describes an applied extrinsic. DispatchErr is set when the call failed
// after its fee was charged; the extrinsic is still part of the block.
type ApplyOutcome struct {
	Kind        transaction.Kind
	Sender      common.Address
	Fee         fees.Record
	Refund      *uint256.Int
	Post        types.PostDispatchInfo
	DispatchErr error
}

// Dispatcher classifies extrinsics and routes them through the check chain that matches
// their kind.
type Dispatcher struct {
	cfg      Config
	calc     fees.Calculator
	verifier Verifier
	executor Executor
}

func NewDispatcher(cfg Config, verifier Verifier, executor Executor) *Dispatcher {
	if verifier == nil {
		verifier = Secp256k1Verifier{}
	}
	return &Dispatcher{
		cfg:      cfg,
		calc:     fees.Calculator{ExtrinsicBaseWeight: cfg.Weights.ExtrinsicBaseWeight},
		verifier: verifier,
		executor: executor,
	}
}

func (d *Dispatcher) Config() Config { return d.cfg }

// Validate decides whether x may enter the pool. Nothing it touches in view survives.
func (d *Dispatcher) Validate(x *transaction.Extrinsic, source Source, view *state.View) (Validity, error) {
	view.Begin()
	defer view.Rollback()

	var (
		v   Validity
		err error
	)
	switch transaction.Classify(x) {
	case transaction.SelfContained:
		v, _, err = d.checkSelfContained(x, view, false)
	default:
		var ctx *checkContext
		ctx, err = d.checkNative(x, view, false)
		if err == nil {
			v = ctx.validity
		}
	}
	if err != nil {
		monitoring.RecordRejectedTx(RejectReason(err))
		logx.Debug("DISPATCH", fmt.Sprintf("rejected from %s: %v", source, err))
		return Validity{}, err
	}
	return v, nil
}

// Apply runs x against view. A validity error leaves view untouched. Otherwise the fee
// and nonce are committed even when the call itself fails, and the settled fee is added
// to pot.
func (d *Dispatcher) Apply(x *transaction.Extrinsic, view *state.View, pot *fees.Pot) (ApplyOutcome, error) {
	var (
		out ApplyOutcome
		err error
	)
	view.Begin()
	switch transaction.Classify(x) {
	case transaction.SelfContained:
		out, err = d.applySelfContained(x, view, pot)
	default:
		out, err = d.applyNative(x, view, pot)
	}
	if err != nil {
		_ = view.Rollback()
		return ApplyOutcome{}, err
	}
	if err := view.Commit(); err != nil {
		return ApplyOutcome{}, err
	}
	return out, nil
}

func (d *Dispatcher) checkNative(x *transaction.Extrinsic, view *state.View, strict bool) (*checkContext, error) {
	if !x.IsSigned() {
		return nil, errors.NewInvalid(errors.ErrCodeUnsigned, errors.ErrMsgUnsigned)
	}
	extra := x.Extra
	payload, err := transaction.SigningPayload(x)
	if err != nil {
		return nil, errors.NewInvalid(errors.ErrCodeCallFiltered, err.Error())
	}
	if !d.verifier.Verify(payload, extra.Signature, extra.Signer) {
		return nil, errors.NewInvalid(errors.ErrCodeBadProof, errors.ErrMsgBadProof)
	}
	length, err := encodedLen(x)
	if err != nil {
		return nil, err
	}
	number, err := view.BlockNumber()
	if err != nil {
		return nil, err
	}
	ctx := &checkContext{
		cfg:      d.cfg,
		calc:     d.calc,
		view:     view,
		extra:    extra,
		info:     d.cfg.CallInfo(x.Call),
		length:   length,
		number:   number,
		strict:   strict,
		validity: newValidity(),
	}
	if err := runNativeChecks(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (d *Dispatcher) applyNative(x *transaction.Extrinsic, view *state.View, pot *fees.Pot) (ApplyOutcome, error) {
	ctx, err := d.checkNative(x, view, true)
	if err != nil {
		return ApplyOutcome{}, err
	}
	signer := ctx.extra.Signer

	// pre-dispatch
	acc := ctx.account
	acc.Nonce++
	if err := view.SetAccount(acc); err != nil {
		return ApplyOutcome{}, err
	}
	if err := noteWeight(d.cfg, view, ctx.info, ctx.length); err != nil {
		return ApplyOutcome{}, err
	}
	charged := ctx.fee.Total()
	if err := balances.Withdraw(view, signer, charged, balances.KeepAlive); err != nil {
		return ApplyOutcome{}, errors.NewInvalidf(errors.ErrCodePayment, "withdraw fee: %v", err)
	}

	post, dispatchErr, err := d.dispatch(x.Call, SignedOrigin{Who: signer}, view)
	if err != nil {
		return ApplyOutcome{}, err
	}

	// post-dispatch
	if err := refundWeight(view, ctx.info, post); err != nil {
		return ApplyOutcome{}, err
	}
	actual := d.calc.ActualFee(ctx.length, ctx.info, post, ctx.extra.TipOrZero())
	refund := new(uint256.Int).Sub(charged, actual.Total())
	if !refund.IsZero() {
		if err := balances.Deposit(view, signer, refund); err != nil {
			return ApplyOutcome{}, err
		}
	}
	if err := pot.Add(actual); err != nil {
		return ApplyOutcome{}, err
	}
	return ApplyOutcome{
		Kind:        transaction.Native,
		Sender:      signer,
		Fee:         actual,
		Refund:      refund,
		Post:        post,
		DispatchErr: dispatchErr,
	}, nil
}

func (d *Dispatcher) checkSelfContained(x *transaction.Extrinsic, view *state.View, strict bool) (Validity, *evmPlan, error) {
	call := x.Call.(*transaction.EthereumTransact)
	sender, err := transaction.RecoverEthereumSender(call.Tx)
	if err != nil {
		return Validity{}, nil, errors.NewInvalid(errors.ErrCodeBadSignature, err.Error())
	}
	if x.Extra != nil {
		return Validity{}, nil, errors.NewInvalid(errors.ErrCodeCallFiltered, "ethereum transaction must not carry a native signature")
	}
	length, err := encodedLen(x)
	if err != nil {
		return Validity{}, nil, err
	}
	return d.validateEthereum(view, sender, call.Tx, d.cfg.CallInfo(call), length, strict)
}

func (d *Dispatcher) applySelfContained(x *transaction.Extrinsic, view *state.View, pot *fees.Pot) (ApplyOutcome, error) {
	_, plan, err := d.checkSelfContained(x, view, true)
	if err != nil {
		return ApplyOutcome{}, err
	}
	call := x.Call.(*transaction.EthereumTransact)
	tx := call.Tx
	info := d.cfg.CallInfo(call)
	length, err := encodedLen(x)
	if err != nil {
		return ApplyOutcome{}, err
	}

	// the nonce is consumed whether or not execution succeeds
	acc := plan.account
	acc.Nonce++
	if err := view.SetAccount(acc); err != nil {
		return ApplyOutcome{}, err
	}
	if err := noteWeight(d.cfg, view, info, length); err != nil {
		return ApplyOutcome{}, err
	}
	limit := uint256.NewInt(tx.Gas())
	charged := new(uint256.Int).Mul(limit, plan.price)
	if err := balances.Withdraw(view, plan.sender, charged, balances.AllowDeath); err != nil {
		return ApplyOutcome{}, errors.NewInvalidf(errors.ErrCodePayment, "withdraw gas: %v", err)
	}

	post, dispatchErr, err := d.dispatch(call, EthereumTransactionOrigin{SignedInfo: plan.sender}, view)
	if err != nil {
		return ApplyOutcome{}, err
	}

	if err := refundWeight(view, info, post); err != nil {
		return ApplyOutcome{}, err
	}
	used := d.gasUsed(tx, post)
	refund := new(uint256.Int).Mul(uint256.NewInt(tx.Gas()-used), plan.price)
	if !refund.IsZero() {
		if err := balances.Deposit(view, plan.sender, refund); err != nil {
			return ApplyOutcome{}, err
		}
	}
	charge := fees.EVMCharge(used, plan.price, plan.baseFee)
	if err := pot.Add(charge); err != nil {
		return ApplyOutcome{}, err
	}
	return ApplyOutcome{
		Kind:        transaction.SelfContained,
		Sender:      plan.sender,
		Fee:         charge,
		Refund:      refund,
		Post:        post,
		DispatchErr: dispatchErr,
	}, nil
}

// dispatch runs the executor in its own layer. A dispatch error rolls the layer back and
// is returned as the second value; the third is reserved for state failures.
func (d *Dispatcher) dispatch(call transaction.Call, origin Origin, view *state.View) (types.PostDispatchInfo, error, error) {
	view.Begin()
	post, err := d.executor.Dispatch(call, origin, view)
	if err != nil {
		if rbErr := view.Rollback(); rbErr != nil {
			return post, nil, rbErr
		}
		logx.Debug("DISPATCH", fmt.Sprintf("%s failed: %v", call.Name(), err))
		return post, err, nil
	}
	return post, nil, view.Commit()
}

func encodedLen(x *transaction.Extrinsic) (int, error) {
	enc, err := transaction.Encode(x)
	if err != nil {
		return 0, errors.NewInvalid(errors.ErrCodeCallFiltered, err.Error())
	}
	return len(enc), nil
}

// RejectReason is the metric label for err: its validity code, or "internal".
func RejectReason(err error) string {
	if v, ok := errors.AsValidity(err); ok {
		return string(v.Code)
	}
	return "internal"
}
