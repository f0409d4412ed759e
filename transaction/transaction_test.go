package transaction

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/types"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = 1013

func signedEthTx(t *testing.T, nonce uint64) (*ethtypes.Transaction, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := crypto.PubkeyToAddress(key.PublicKey)
	tx, err := ethtypes.SignNewTx(key, ethtypes.NewLondonSigner(big.NewInt(testChainID)), &ethtypes.DynamicFeeTx{
		ChainID:   big.NewInt(testChainID),
		Nonce:     nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2_000_000_000),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(7),
	})
	require.NoError(t, err)
	return tx, common.FromEVM(crypto.PubkeyToAddress(key.PublicKey))
}

func nativeTransfer(t *testing.T) (*Extrinsic, *secp256k1.PrivateKey) {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	x := &Extrinsic{
		Call: &Transfer{Dest: common.MustParseAddress("0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d"), Value: uint256.NewInt(1000)},
		Extra: &SignedExtra{
			SpecVersion: 102,
			TxVersion:   1,
			GenesisHash: common.Keccak256Hash([]byte("genesis")),
			Era:         types.MortalEra(64, 10),
			Nonce:       3,
			Tip:         uint256.NewInt(5),
		},
	}
	require.NoError(t, Sign(x, key))
	return x, key
}

func TestClassify(t *testing.T) {
	tx, _ := signedEthTx(t, 0)

	cases := []struct {
		name string
		x    *Extrinsic
		want Kind
	}{
		{"nil extrinsic", nil, Native},
		{"nil call", &Extrinsic{}, Native},
		{"transfer", &Extrinsic{Call: &Transfer{Value: uint256.NewInt(1)}}, Native},
		{"remark", &Extrinsic{Call: &Remark{}}, Native},
		{"set keys", &Extrinsic{Call: &SetKeys{}}, Native},
		{"sudo wrapping ethereum stays native", &Extrinsic{Call: &SudoCall{Inner: &EthereumTransact{Tx: tx}}}, Native},
		{"ethereum transact", NewUnsigned(&EthereumTransact{Tx: tx}), SelfContained},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.x))
		})
	}
}

func TestClassifyAgreesAcrossReencoding(t *testing.T) {
	tx, _ := signedEthTx(t, 1)
	native, _ := nativeTransfer(t)

	for _, x := range []*Extrinsic{native, NewUnsigned(&EthereumTransact{Tx: tx})} {
		enc, err := Encode(x)
		require.NoError(t, err)

		first, err := Decode(enc)
		require.NoError(t, err)
		second, err := Decode(enc)
		require.NoError(t, err)

		assert.Equal(t, Classify(x), Classify(first))
		assert.Equal(t, Classify(first), Classify(second))

		reenc, err := Encode(first)
		require.NoError(t, err)
		assert.Equal(t, enc, reenc)
	}
}

func TestClassifyFuzzedNativeCalls(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 64)
	for i := 0; i < 200; i++ {
		var (
			transfer Transfer
			remark   Remark
			keys     SetKeys
			extra    SignedExtra
		)
		f.Fuzz(&transfer)
		f.Fuzz(&remark)
		f.Fuzz(&keys)
		f.Fuzz(&extra)

		for _, call := range []Call{&transfer, &remark, &keys, &SudoCall{Inner: &remark}} {
			x := &Extrinsic{Call: call, Extra: &extra}
			enc, err := Encode(x)
			require.NoError(t, err)
			decoded, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, Native, Classify(decoded))
			assert.Equal(t, call.Name(), decoded.Call.Name())
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	f := fuzz.New().NumElements(1, 128)
	for i := 0; i < 200; i++ {
		var data []byte
		f.Fuzz(&data)
		x, err := Decode(data)
		if err == nil {
			// whatever decodes must classify and re-encode without panicking
			_ = Classify(x)
			_, err = Encode(x)
			assert.NoError(t, err)
		}
	}

	_, err := Decode([]byte{0xc3, 0x80, 0x80, 0xc0})
	assert.Error(t, err)
}

func TestDecodeUnknownTag(t *testing.T) {
	x := &Extrinsic{Call: &Remark{Data: []byte("hi")}}
	enc, err := Encode(x)
	require.NoError(t, err)

	bad := wireExtrinsic{Call: wireCall{Tag: 200}}
	badEnc, err := encodeWire(&bad)
	require.NoError(t, err)
	_, err = Decode(badEnc)
	assert.ErrorIs(t, err, ErrUnknownCall)

	_, err = Decode(enc)
	assert.NoError(t, err)
}

func TestEncodeRejectsNilCalls(t *testing.T) {
	_, err := Encode(&Extrinsic{})
	assert.ErrorIs(t, err, ErrNilCall)
	_, err = Encode(&Extrinsic{Call: &SudoCall{}})
	assert.ErrorIs(t, err, ErrNilCall)
	_, err = Encode(&Extrinsic{Call: &Transfer{}})
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestSignedPayloadRecoversSigner(t *testing.T) {
	x, key := nativeTransfer(t)

	payload, err := SigningPayload(x)
	require.NoError(t, err)
	signer, err := common.RecoverSigner(payload[:], x.Extra.Signature)
	require.NoError(t, err)
	assert.Equal(t, common.KeyToAddress(key), signer)
	assert.Equal(t, signer, x.Extra.Signer)

	// any signed extension change invalidates the signature
	x.Extra.Nonce++
	tampered, err := SigningPayload(x)
	require.NoError(t, err)
	assert.NotEqual(t, payload, tampered)
	recovered, err := common.RecoverSigner(tampered[:], x.Extra.Signature)
	if err == nil {
		assert.NotEqual(t, signer, recovered)
	}
}

func TestRecoverEthereumSender(t *testing.T) {
	tx, from := signedEthTx(t, 0)
	got, err := RecoverEthereumSender(tx)
	require.NoError(t, err)
	assert.Equal(t, from, got)
	assert.Equal(t, from.EVM(), got.EVM())
}

func TestRecoverEthereumSenderLegacyUnprotected(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx, err := ethtypes.SignNewTx(key, ethtypes.HomesteadSigner{}, &ethtypes.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21_000,
		Value:    big.NewInt(1),
	})
	require.NoError(t, err)

	got, err := RecoverEthereumSender(tx)
	require.NoError(t, err)
	assert.Equal(t, common.FromEVM(crypto.PubkeyToAddress(key.PublicKey)), got)
}

func TestDedupHash(t *testing.T) {
	x, _ := nativeTransfer(t)
	h1, err := DedupHash(x)
	require.NoError(t, err)

	// the signature is not part of the dedup identity
	x.Extra.Signature = append([]byte(nil), x.Extra.Signature...)
	x.Extra.Signature[0] ^= 0xff
	h2, err := DedupHash(x)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	tx, _ := signedEthTx(t, 9)
	eh, err := DedupHash(NewUnsigned(&EthereumTransact{Tx: tx}))
	require.NoError(t, err)
	hash := tx.Hash()
	assert.Equal(t, common.EncodeBytesToBase58(hash[:]), eh)
}
