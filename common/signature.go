package common

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignatureLength is R || S || V with V in {0, 1}.
const SignatureLength = 65

// compactMagicOffset is added to the recovery id in the compact signature header byte
// understood by ecdsa.RecoverCompact for uncompressed keys.
const compactMagicOffset = 27

var ErrInvalidSignature = errors.New("invalid signature")

// RecoverSigner recovers the account that produced sig over the 32-byte digest hash.
func RecoverSigner(hash []byte, sig []byte) (Address, error) {
	if len(hash) != HashLength {
		return Address{}, fmt.Errorf("%w: digest must be %d bytes", ErrInvalidSignature, HashLength)
	}
	if len(sig) != SignatureLength {
		return Address{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(sig), SignatureLength)
	}
	v := sig[64]
	if v > 1 {
		return Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, v)
	}
	compact := make([]byte, SignatureLength)
	compact[0] = compactMagicOffset + v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return pubkeyToAddress(pub), nil
}

// Sign produces an R || S || V signature over hash, the format accepted by RecoverSigner.
func Sign(hash []byte, key *secp256k1.PrivateKey) ([]byte, error) {
	if len(hash) != HashLength {
		return nil, fmt.Errorf("%w: digest must be %d bytes", ErrInvalidSignature, HashLength)
	}
	compact := ecdsa.SignCompact(key, hash, false)
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0] - compactMagicOffset
	return sig, nil
}

// KeyToAddress is the address of a private key's public half.
func KeyToAddress(key *secp256k1.PrivateKey) Address {
	return pubkeyToAddress(key.PubKey())
}
