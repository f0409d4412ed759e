package dispatch_test

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/dispatch"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/runtime"
	"github.com/globalfoundation/gnf/session"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genesisHash = common.Keccak256Hash([]byte("gnf genesis"))
	bob         = common.MustParseAddress("0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d")
	gwei        = uint256.NewInt(params.GWei)
)

type recordingExecutor struct {
	inner   dispatch.Executor
	origins []dispatch.Origin
}

func (r *recordingExecutor) Dispatch(call transaction.Call, origin dispatch.Origin, view *state.View) (types.PostDispatchInfo, error) {
	r.origins = append(r.origins, origin)
	return r.inner.Dispatch(call, origin, view)
}

type acceptAll struct{}

func (acceptAll) Verify(common.Hash, []byte, common.Address) bool { return true }

type fixture struct {
	d    *dispatch.Dispatcher
	exec *recordingExecutor
	view *state.View
	key  *secp256k1.PrivateKey
	who  common.Address
}

func newFixture(t *testing.T, verifier dispatch.Verifier) *fixture {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	who := common.KeyToAddress(key)

	view := state.NewView(state.NewOverlay(nil))
	require.NoError(t, view.SetBlockHash(0, genesisHash))
	require.NoError(t, view.SetBlockNumber(1))
	require.NoError(t, view.SetBaseFeePerGas(gwei))
	require.NoError(t, view.SetAccount(&types.Account{Address: who, Balance: types.GNF(10)}))
	require.NoError(t, view.SetSudoKey(who))
	require.NoError(t, view.SetValidators([]common.Address{who}))

	exec := &recordingExecutor{inner: runtime.NewExecutor(session.DefaultConfig(), nil, dispatch.WeightPerGas)}
	return &fixture{
		d:    dispatch.NewDispatcher(dispatch.DefaultConfig(genesisHash), verifier, exec),
		exec: exec,
		view: view,
		key:  key,
		who:  who,
	}
}

func (f *fixture) extra(nonce uint64) *transaction.SignedExtra {
	return &transaction.SignedExtra{
		SpecVersion: dispatch.SpecVersion,
		TxVersion:   dispatch.TxVersion,
		GenesisHash: genesisHash,
		Era:         types.ImmortalEra,
		Nonce:       nonce,
	}
}

func (f *fixture) signed(t *testing.T, call transaction.Call, mutate func(*transaction.SignedExtra)) *transaction.Extrinsic {
	t.Helper()
	x := &transaction.Extrinsic{Call: call, Extra: f.extra(0)}
	if mutate != nil {
		mutate(x.Extra)
	}
	require.NoError(t, transaction.Sign(x, f.key))
	return x
}

func (f *fixture) account(t *testing.T, who common.Address) *types.Account {
	t.Helper()
	acc, err := f.view.Account(who)
	require.NoError(t, err)
	return acc
}

func encodedLen(t *testing.T, x *transaction.Extrinsic) uint64 {
	t.Helper()
	enc, err := transaction.Encode(x)
	require.NoError(t, err)
	return uint64(len(enc))
}

func TestNativeCheckOrder(t *testing.T) {
	assert.Equal(t, []string{
		"CheckNonZeroSender",
		"CheckSpecVersion",
		"CheckTxVersion",
		"CheckGenesis",
		"CheckEra",
		"CheckNonce",
		"CheckWeight",
		"ChargeTransactionPayment",
	}, dispatch.NativeCheckOrder())
}

func TestApplyNativeTransfer(t *testing.T) {
	f := newFixture(t, nil)
	x := f.signed(t, &transaction.Transfer{Dest: bob, Value: types.GNF(1)}, nil)
	pot := fees.NewPot()

	out, err := f.d.Apply(x, f.view, pot)
	require.NoError(t, err)
	require.NoError(t, out.DispatchErr)
	assert.Equal(t, transaction.Native, out.Kind)
	assert.Equal(t, f.who, out.Sender)

	cfg := f.d.Config()
	wantFee := uint256.NewInt(uint64(cfg.Weights.ExtrinsicBaseWeight) + uint64(cfg.Calls.Transfer) + encodedLen(t, x))
	assert.Equal(t, wantFee, out.Fee.Total())
	assert.True(t, out.Refund.IsZero())
	assert.Equal(t, wantFee, pot.Peek().Total())

	acc := f.account(t, f.who)
	assert.Equal(t, uint64(1), acc.Nonce)
	want := new(uint256.Int).Sub(types.GNF(9), wantFee)
	assert.Equal(t, want, acc.Balance)
	assert.Equal(t, types.GNF(1), f.account(t, bob).Balance)

	require.Len(t, f.exec.origins, 1)
	assert.Equal(t, dispatch.SignedOrigin{Who: f.who}, f.exec.origins[0])

	weight, err := f.view.BlockWeight()
	require.NoError(t, err)
	assert.Equal(t, cfg.Weights.ExtrinsicBaseWeight+cfg.Calls.Transfer, weight)
}

func TestApplyDispatchErrorKeepsFeeAndNonce(t *testing.T) {
	f := newFixture(t, nil)
	x := f.signed(t, &transaction.Transfer{Dest: bob, Value: types.GNF(50)}, nil)
	pot := fees.NewPot()

	out, err := f.d.Apply(x, f.view, pot)
	require.NoError(t, err)
	assert.ErrorIs(t, out.DispatchErr, errors.ErrInsufficientBalance)

	acc := f.account(t, f.who)
	assert.Equal(t, uint64(1), acc.Nonce)
	assert.Equal(t, new(uint256.Int).Sub(types.GNF(10), out.Fee.Total()), acc.Balance)
	assert.True(t, f.account(t, bob).Balance.IsZero())
	assert.False(t, pot.Peek().IsZero())
}

func TestApplySudoRefundsFee(t *testing.T) {
	f := newFixture(t, nil)
	tip := uint256.NewInt(1000)
	x := f.signed(t, &transaction.SudoCall{Inner: &transaction.AddValidator{Validator: bob}}, func(e *transaction.SignedExtra) {
		e.Tip = tip
	})
	pot := fees.NewPot()

	out, err := f.d.Apply(x, f.view, pot)
	require.NoError(t, err)
	require.NoError(t, out.DispatchErr)
	assert.True(t, out.Fee.Base.IsZero())
	assert.Equal(t, tip, out.Fee.Tip)
	assert.False(t, out.Refund.IsZero())

	assert.Equal(t, new(uint256.Int).Sub(types.GNF(10), tip), f.account(t, f.who).Balance)
	assert.Equal(t, tip, pot.Peek().Total())
	require.Len(t, f.exec.origins, 1)
}

func TestApplyValidityErrorLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, nil)
	x := f.signed(t, &transaction.Remark{Data: []byte("hi")}, func(e *transaction.SignedExtra) { e.Nonce = 3 })
	before := f.view.Changes()

	_, err := f.d.Apply(x, f.view, fees.NewPot())
	assert.ErrorIs(t, err, errors.ErrFuture)
	assert.Equal(t, before, f.view.Changes())
	assert.Empty(t, f.exec.origins)
}

func TestNativeCheckFailures(t *testing.T) {
	cases := []struct {
		name     string
		verifier dispatch.Verifier
		build    func(t *testing.T, f *fixture) *transaction.Extrinsic
		want     error
	}{
		{
			name: "unsigned",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return transaction.NewUnsigned(&transaction.Remark{})
			},
			want: errors.ErrUnsigned,
		},
		{
			name: "tampered after signing",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				x := f.signed(t, &transaction.Remark{}, nil)
				x.Extra.Tip = uint256.NewInt(1)
				return x
			},
			want: errors.ErrBadProof,
		},
		{
			name:     "zero signer",
			verifier: acceptAll{},
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return &transaction.Extrinsic{Call: &transaction.Remark{}, Extra: f.extra(0)}
			},
			want: errors.ErrBadSigner,
		},
		{
			name: "spec version",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.SpecVersion = 101 })
			},
			want: errors.ErrBadSpecVersion,
		},
		{
			name: "tx version",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.TxVersion = 2 })
			},
			want: errors.ErrBadTxVersion,
		},
		{
			name: "genesis",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.GenesisHash = common.Hash{1} })
			},
			want: errors.ErrBadGenesis,
		},
		{
			name: "unknown birth block",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.Era = types.MortalEra(64, 1) })
			},
			want: errors.ErrAncientBirthBlock,
		},
		{
			name: "stale nonce",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				acc := f.account(t, f.who)
				acc.Nonce = 2
				require.NoError(t, f.view.SetAccount(acc))
				return f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.Nonce = 1 })
			},
			want: errors.ErrStale,
		},
		{
			name: "block full",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				require.NoError(t, f.view.SetBlockWeight(f.d.Config().Weights.MaxFor(types.DispatchNormal)))
				return f.signed(t, &transaction.Remark{}, nil)
			},
			want: errors.ErrExhaustsResources,
		},
		{
			name: "cannot pay",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				require.NoError(t, f.view.SetAccount(&types.Account{Address: f.who, Balance: uint256.NewInt(1000)}))
				return f.signed(t, &transaction.Remark{}, nil)
			},
			want: errors.ErrPayment,
		},
		{
			name: "fee would reap",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				x := f.signed(t, &transaction.Remark{}, nil)
				fee := f.d.Config().Weights.ExtrinsicBaseWeight + f.d.Config().Calls.Remark + types.Weight(encodedLen(t, x))
				require.NoError(t, f.view.SetAccount(&types.Account{Address: f.who, Balance: uint256.NewInt(uint64(fee))}))
				return x
			},
			want: errors.ErrPayment,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.verifier)
			x := tc.build(t, f)
			_, err := f.d.Validate(x, dispatch.SourceExternal, f.view)
			assert.ErrorIs(t, err, tc.want)
			_, err = f.d.Apply(x, f.view, fees.NewPot())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateFutureNonceRequiresPredecessor(t *testing.T) {
	f := newFixture(t, nil)
	x := f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.Nonce = 2 })

	v, err := f.d.Validate(x, dispatch.SourceExternal, f.view)
	require.NoError(t, err)
	require.Len(t, v.Requires, 1)
	require.Len(t, v.Provides, 1)
	assert.Equal(t, append(f.who.Bytes(), 0, 0, 0, 0, 0, 0, 0, 1), v.Requires[0])
	assert.Equal(t, append(f.who.Bytes(), 0, 0, 0, 0, 0, 0, 0, 2), v.Provides[0])
	assert.True(t, v.Propagate)
}

func TestValidateDoesNotMutate(t *testing.T) {
	f := newFixture(t, nil)
	before := f.view.Changes()
	x := f.signed(t, &transaction.Transfer{Dest: bob, Value: types.GNF(1)}, nil)

	_, err := f.d.Validate(x, dispatch.SourceLocal, f.view)
	require.NoError(t, err)
	assert.Equal(t, before, f.view.Changes())
	assert.Equal(t, 0, f.view.Depth())
}

func TestValidateMortalLongevity(t *testing.T) {
	f := newFixture(t, nil)
	x := f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.Era = types.MortalEra(64, 0) })

	v, err := f.d.Validate(x, dispatch.SourceExternal, f.view)
	require.NoError(t, err)
	assert.Equal(t, uint64(63), v.Longevity)
}

func TestTipRaisesPriority(t *testing.T) {
	f := newFixture(t, nil)
	low := f.signed(t, &transaction.Remark{}, nil)
	high := f.signed(t, &transaction.Remark{}, func(e *transaction.SignedExtra) { e.Tip = uint256.NewInt(1_000_000) })

	vl, err := f.d.Validate(low, dispatch.SourceExternal, f.view)
	require.NoError(t, err)
	vh, err := f.d.Validate(high, dispatch.SourceExternal, f.view)
	require.NoError(t, err)
	assert.Greater(t, vh.Priority, vl.Priority)
}

// ethereum path

type ethSender struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newEthSender(t *testing.T, f *fixture, balance *uint256.Int) ethSender {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := common.FromEVM(crypto.PubkeyToAddress(key.PublicKey))
	require.NoError(t, f.view.SetAccount(&types.Account{Address: addr, Balance: balance}))
	return ethSender{key: key, addr: addr}
}

func (s ethSender) sign(t *testing.T, chainID int64, tx *ethtypes.DynamicFeeTx) *transaction.Extrinsic {
	t.Helper()
	tx.ChainID = big.NewInt(chainID)
	signed, err := ethtypes.SignNewTx(s.key, ethtypes.LatestSignerForChainID(tx.ChainID), tx)
	require.NoError(t, err)
	return transaction.NewUnsigned(&transaction.EthereumTransact{Tx: signed})
}

func transferTx(nonce, gas uint64) *ethtypes.DynamicFeeTx {
	to := bob.EVM()
	return &ethtypes.DynamicFeeTx{
		Nonce:     nonce,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(2 * params.GWei),
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(params.Ether),
	}
}

func TestApplyEthereumTransfer(t *testing.T) {
	f := newFixture(t, nil)
	s := newEthSender(t, f, types.GNF(10))
	x := s.sign(t, int64(dispatch.ChainID), transferTx(0, 50_000))
	pot := fees.NewPot()

	out, err := f.d.Apply(x, f.view, pot)
	require.NoError(t, err)
	require.NoError(t, out.DispatchErr)
	assert.Equal(t, transaction.SelfContained, out.Kind)
	assert.Equal(t, s.addr, out.Sender)

	require.Len(t, f.exec.origins, 1)
	assert.Equal(t, dispatch.EthereumTransactionOrigin{SignedInfo: s.addr}, f.exec.origins[0])

	price := new(uint256.Int).AddUint64(gwei, 2)
	wantFee := new(uint256.Int).Mul(uint256.NewInt(params.TxGas), price)
	assert.Equal(t, wantFee, out.Fee.Total())
	assert.Equal(t, new(uint256.Int).Mul(uint256.NewInt(params.TxGas), gwei), out.Fee.Base)
	assert.Equal(t, new(uint256.Int).Mul(uint256.NewInt(50_000-params.TxGas), price), out.Refund)
	assert.Equal(t, wantFee, pot.Peek().Total())

	acc := f.account(t, s.addr)
	assert.Equal(t, uint64(1), acc.Nonce)
	spent := new(uint256.Int).Add(types.GNF(1), wantFee)
	assert.Equal(t, new(uint256.Int).Sub(types.GNF(10), spent), acc.Balance)
	assert.Equal(t, types.GNF(1), f.account(t, bob).Balance)
}

func TestApplyEthereumFailureConsumesNonceAndGas(t *testing.T) {
	f := newFixture(t, nil)
	s := newEthSender(t, f, types.GNF(10))
	tx := transferTx(0, 100_000)
	tx.To = nil
	tx.Value = big.NewInt(0)
	tx.Data = []byte{0x60, 0x01}
	x := s.sign(t, int64(dispatch.ChainID), tx)

	out, err := f.d.Apply(x, f.view, fees.NewPot())
	require.NoError(t, err)
	assert.ErrorIs(t, out.DispatchErr, errors.ErrEVMUnsupported)
	assert.True(t, out.Refund.IsZero())

	acc := f.account(t, s.addr)
	assert.Equal(t, uint64(1), acc.Nonce)
	price := new(uint256.Int).AddUint64(gwei, 2)
	charged := new(uint256.Int).Mul(uint256.NewInt(100_000), price)
	assert.Equal(t, new(uint256.Int).Sub(types.GNF(10), charged), acc.Balance)
}

func TestEthereumValidityFailures(t *testing.T) {
	cases := []struct {
		name  string
		build func(t *testing.T, f *fixture) *transaction.Extrinsic
		want  error
	}{
		{
			name: "malformed signature",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				to := bob.EVM()
				tx := ethtypes.NewTx(&ethtypes.LegacyTx{To: &to, Gas: params.TxGas, GasPrice: big.NewInt(params.GWei)})
				return transaction.NewUnsigned(&transaction.EthereumTransact{Tx: tx})
			},
			want: errors.ErrBadSignature,
		},
		{
			name: "missing transaction",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return transaction.NewUnsigned(&transaction.EthereumTransact{})
			},
			want: errors.ErrBadSignature,
		},
		{
			name: "wrong chain",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return newEthSender(t, f, types.GNF(10)).sign(t, 1, transferTx(0, 21_000))
			},
			want: errors.ErrInvalidChainID,
		},
		{
			name: "gas above block limit",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return newEthSender(t, f, types.GNF(10)).sign(t, int64(dispatch.ChainID), transferTx(0, f.d.Config().BlockGasLimit()+1))
			},
			want: errors.ErrGasLimitTooHigh,
		},
		{
			name: "gas below intrinsic",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return newEthSender(t, f, types.GNF(10)).sign(t, int64(dispatch.ChainID), transferTx(0, 20_000))
			},
			want: errors.ErrGasLimitTooLow,
		},
		{
			name: "fee cap below base fee",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				tx := transferTx(0, 21_000)
				tx.GasFeeCap = big.NewInt(params.GWei - 1)
				tx.GasTipCap = big.NewInt(0)
				return newEthSender(t, f, types.GNF(10)).sign(t, int64(dispatch.ChainID), tx)
			},
			want: errors.ErrGasPriceTooLow,
		},
		{
			name: "stale nonce",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				s := newEthSender(t, f, types.GNF(10))
				require.NoError(t, f.view.SetAccount(&types.Account{Address: s.addr, Balance: types.GNF(10), Nonce: 5}))
				return s.sign(t, int64(dispatch.ChainID), transferTx(4, 21_000))
			},
			want: errors.ErrStale,
		},
		{
			name: "cannot cover value",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				return newEthSender(t, f, types.GNF(1)).sign(t, int64(dispatch.ChainID), transferTx(0, 21_000))
			},
			want: errors.ErrPayment,
		},
		{
			name: "carries native signature",
			build: func(t *testing.T, f *fixture) *transaction.Extrinsic {
				x := newEthSender(t, f, types.GNF(10)).sign(t, int64(dispatch.ChainID), transferTx(0, 21_000))
				x.Extra = f.extra(0)
				return x
			},
			want: errors.ErrCallFiltered,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			x := tc.build(t, f)
			_, err := f.d.Validate(x, dispatch.SourceExternal, f.view)
			assert.ErrorIs(t, err, tc.want)
			_, err = f.d.Apply(x, f.view, fees.NewPot())
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.exec.origins)
		})
	}
}

func TestIntrinsicGas(t *testing.T) {
	to := bob.EVM()
	plain := ethtypes.NewTx(&ethtypes.LegacyTx{To: &to})
	gas, ok := dispatch.IntrinsicGas(plain)
	require.True(t, ok)
	assert.Equal(t, params.TxGas, gas)

	create := ethtypes.NewTx(&ethtypes.LegacyTx{Data: []byte{0, 1, 2}})
	gas, ok = dispatch.IntrinsicGas(create)
	require.True(t, ok)
	assert.Equal(t, params.TxGasContractCreation+params.TxDataZeroGas+2*params.TxDataNonZeroGasEIP2028+params.InitCodeWordGas, gas)
}

func TestBlockGasLimit(t *testing.T) {
	assert.Equal(t, uint64(37_500_000), dispatch.DefaultConfig(genesisHash).BlockGasLimit())
}
