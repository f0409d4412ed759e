package common

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeyToAddressDeterministic(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	first, err := PubkeyToAddress(key.PubKey().SerializeUncompressed())
	require.NoError(t, err)
	second, err := PubkeyToAddress(key.PubKey().SerializeUncompressed())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	compressed, err := PubkeyToAddress(key.PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.Equal(t, first, compressed, "compressed and uncompressed encodings must map to one address")
}

func TestPubkeyToAddressMatchesEthereumDerivation(t *testing.T) {
	ethKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	addr, err := PubkeyToAddress(crypto.FromECDSAPub(&ethKey.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(ethKey.PublicKey), addr.EVM())
}

func TestPubkeyToAddressRejectsGarbage(t *testing.T) {
	_, err := PubkeyToAddress([]byte{0x04, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidPubkey)
}

func TestEVMReinterpretation(t *testing.T) {
	a := MustParseAddress("0x2FBAC9dE90e988fB2014FC8Aa08cf452e5E5E515")
	assert.Equal(t, a[:], a.EVM().Bytes())
	assert.Equal(t, a, FromEVM(a.EVM()))
	assert.Equal(t, "0x2FBAC9dE90e988fB2014FC8Aa08cf452e5E5E515", a.Hex())
}

func TestParseAddress(t *testing.T) {
	_, err := ParseAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddressLen)

	_, err = ParseAddress("0xzzBAC9dE90e988fB2014FC8Aa08cf452e5E5E515")
	assert.ErrorIs(t, err, ErrInvalidAddressHex)

	a, err := ParseAddress("f3c25ea246b52a901b47cdae1ecd3039246ab31d")
	require.NoError(t, err)
	assert.Equal(t, "0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d", a.Hex())
}

func TestSignRecoverRoundTrip(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	hash := Keccak256([]byte("payload"))

	sig, err := Sign(hash, key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	signer, err := RecoverSigner(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, KeyToAddress(key), signer)
}

func TestRecoverSignerAgreesWithEthereum(t *testing.T) {
	ethKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	hash := crypto.Keccak256([]byte("same key, two paths"))

	sig, err := crypto.Sign(hash, ethKey)
	require.NoError(t, err)

	signer, err := RecoverSigner(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(ethKey.PublicKey), signer.EVM())
}

func TestRecoverSignerRejectsMalformed(t *testing.T) {
	hash := Keccak256([]byte("x"))
	_, err := RecoverSigner(hash, make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	bad := make([]byte, SignatureLength)
	bad[64] = 5
	_, err = RecoverSigner(hash, bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
