package dispatch

import (
	"math"

	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// checkContext is threaded through the native check chain.
type checkContext struct {
	cfg    Config
	calc   fees.Calculator
	view   *state.View
	extra  *transaction.SignedExtra
	info   types.DispatchInfo
	length int
	number uint64
	strict bool

	account  *types.Account
	fee      fees.Record
	validity Validity
}

type check struct {
	name string
	run  func(*checkContext) error
}

// nativeChecks run in this exact order; the first failure wins.
var nativeChecks = []check{
	{"CheckNonZeroSender", checkNonZeroSender},
	{"CheckSpecVersion", checkSpecVersion},
	{"CheckTxVersion", checkTxVersion},
	{"CheckGenesis", checkGenesis},
	{"CheckEra", checkEra},
	{"CheckNonce", checkNonce},
	{"CheckWeight", checkWeightStage},
	{"ChargeTransactionPayment", chargeTransactionPayment},
}

// NativeCheckOrder lists the native check chain in execution order.
func NativeCheckOrder() []string {
	names := make([]string, len(nativeChecks))
	for i, c := range nativeChecks {
		names[i] = c.name
	}
	return names
}

func runNativeChecks(ctx *checkContext) error {
	for _, c := range nativeChecks {
		if err := c.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func checkNonZeroSender(ctx *checkContext) error {
	if ctx.extra.Signer.IsZero() {
		return errors.NewInvalid(errors.ErrCodeBadSigner, errors.ErrMsgBadSigner)
	}
	return nil
}

func checkSpecVersion(ctx *checkContext) error {
	if ctx.extra.SpecVersion != ctx.cfg.SpecVersion {
		return errors.NewInvalidf(errors.ErrCodeBadSpecVersion, "spec version %d, runtime is %d", ctx.extra.SpecVersion, ctx.cfg.SpecVersion)
	}
	return nil
}

func checkTxVersion(ctx *checkContext) error {
	if ctx.extra.TxVersion != ctx.cfg.TxVersion {
		return errors.NewInvalidf(errors.ErrCodeBadTxVersion, "transaction version %d, runtime is %d", ctx.extra.TxVersion, ctx.cfg.TxVersion)
	}
	return nil
}

func checkGenesis(ctx *checkContext) error {
	if ctx.extra.GenesisHash != ctx.cfg.GenesisHash {
		return errors.NewInvalid(errors.ErrCodeBadGenesis, errors.ErrMsgBadGenesis)
	}
	return nil
}

// checkEra accepts a mortal transaction only while the hash of its birth block is still
// known.
func checkEra(ctx *checkContext) error {
	era := ctx.extra.Era
	if era.IsImmortal() {
		return nil
	}
	n := ctx.number
	birth := era.Birth(n)
	if birth > n || n-birth > ctx.cfg.BlockHashCount {
		return errors.NewInvalidf(errors.ErrCodeAncientBirthBlock, "era born at %d is not usable at block %d", birth, n)
	}
	_, found, err := ctx.view.BlockHash(birth)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewInvalidf(errors.ErrCodeAncientBirthBlock, "no block hash for era birth %d", birth)
	}
	ctx.validity.Longevity = era.Death(n) - n
	return nil
}

func checkNonce(ctx *checkContext) error {
	acc, err := ctx.view.Account(ctx.extra.Signer)
	if err != nil {
		return err
	}
	ctx.account = acc
	nonce := ctx.extra.Nonce
	if nonce < acc.Nonce {
		return errors.NewInvalidf(errors.ErrCodeStale, "nonce %d, account is at %d", nonce, acc.Nonce)
	}
	if nonce > acc.Nonce {
		if ctx.strict {
			return errors.NewInvalidf(errors.ErrCodeFuture, "nonce %d, account is at %d", nonce, acc.Nonce)
		}
		ctx.validity.Requires = append(ctx.validity.Requires, nonceTag(acc.Address, nonce-1))
	}
	ctx.validity.Provides = append(ctx.validity.Provides, nonceTag(acc.Address, nonce))
	return nil
}

func checkWeightStage(ctx *checkContext) error {
	return checkWeight(ctx.cfg, ctx.view, ctx.info, ctx.length)
}

// chargeTransactionPayment verifies the signer can pay fee and tip without being reaped,
// and derives the pool priority.
func chargeTransactionPayment(ctx *checkContext) error {
	ctx.fee = ctx.calc.ComputeFee(ctx.length, ctx.info, ctx.extra.TipOrZero())
	total := ctx.fee.Total()
	if !total.IsZero() {
		bal := ctx.account.Balance
		if bal.Lt(total) {
			return errors.NewInvalidf(errors.ErrCodePayment, "balance %s below fee %s", bal, total)
		}
		if rest := new(uint256.Int).Sub(bal, total); rest.Lt(types.ExistentialDeposit) {
			return errors.NewInvalidf(errors.ErrCodePayment, "paying %s would reap the account", total)
		}
	}
	ctx.validity.Priority = priority(ctx.cfg, ctx.info, ctx.length, ctx.fee)
	return nil
}

// checkWeight rejects an extrinsic that does not fit the remaining block budget of its class.
func checkWeight(cfg Config, view *state.View, info types.DispatchInfo, length int) error {
	maxWeight := cfg.Weights.MaxFor(info.Class)
	weight := info.Weight + cfg.Weights.ExtrinsicBaseWeight
	if weight < info.Weight || weight > maxWeight {
		return errors.NewInvalidf(errors.ErrCodeExhaustsResources, "extrinsic weight %d exceeds %d", weight, maxWeight)
	}
	used, err := view.BlockWeight()
	if err != nil {
		return err
	}
	if used+weight < used || used+weight > maxWeight {
		return errors.NewInvalidf(errors.ErrCodeExhaustsResources, "block weight %d + %d exceeds %d", used, weight, maxWeight)
	}
	usedLen, err := view.ExtrinsicsLen()
	if err != nil {
		return err
	}
	if maxLen := cfg.Length.MaxFor(info.Class); usedLen+uint64(length) > maxLen {
		return errors.NewInvalidf(errors.ErrCodeExhaustsResources, "block length %d + %d exceeds %d", usedLen, length, maxLen)
	}
	return nil
}

// noteWeight books the extrinsic against the block budget.
func noteWeight(cfg Config, view *state.View, info types.DispatchInfo, length int) error {
	used, err := view.BlockWeight()
	if err != nil {
		return err
	}
	if err := view.SetBlockWeight(used + info.Weight + cfg.Weights.ExtrinsicBaseWeight); err != nil {
		return err
	}
	usedLen, err := view.ExtrinsicsLen()
	if err != nil {
		return err
	}
	return view.SetExtrinsicsLen(usedLen + uint64(length))
}

// refundWeight returns unused weight to the block budget after dispatch.
func refundWeight(view *state.View, info types.DispatchInfo, post types.PostDispatchInfo) error {
	unspent := info.Weight - post.CalcActualWeight(info)
	if unspent == 0 {
		return nil
	}
	used, err := view.BlockWeight()
	if err != nil {
		return err
	}
	if unspent > used {
		unspent = used
	}
	return view.SetBlockWeight(used - unspent)
}

// priority scales the tip by how many such transactions fit in a block; operational calls
// add a virtual tip proportional to their fee.
func priority(cfg Config, info types.DispatchInfo, length int, fee fees.Record) uint64 {
	maxWeight := uint64(cfg.Weights.MaxFor(info.Class))
	maxLength := cfg.Length.MaxFor(info.Class)
	boundedWeight := clamp(uint64(info.Weight), 1, maxWeight)
	boundedLength := clamp(uint64(length), 1, maxLength)
	perBlock := maxWeight / boundedWeight
	if byLen := maxLength / boundedLength; byLen < perBlock {
		perBlock = byLen
	}

	n := uint256.NewInt(perBlock)
	tip, overflow := new(uint256.Int).AddOverflow(fee.Tip, uint256.NewInt(1))
	scaled, o := new(uint256.Int).MulOverflow(tip, n)
	overflow = overflow || o
	if info.Class == types.DispatchOperational {
		virtual, o1 := new(uint256.Int).MulOverflow(fee.Base, uint256.NewInt(cfg.OperationalFeeMultiplier))
		virtual, o2 := virtual.MulOverflow(virtual, n)
		_, o3 := scaled.AddOverflow(scaled, virtual)
		overflow = overflow || o1 || o2 || o3
	}
	if overflow || !scaled.IsUint64() {
		return math.MaxUint64
	}
	return scaled.Uint64()
}

func clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if hi >= lo && v > hi {
		return hi
	}
	return v
}
