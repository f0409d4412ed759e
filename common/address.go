package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// AddressLength is the byte length of every account identifier, native or EVM.
const AddressLength = 20

var (
	ErrInvalidPubkey     = errors.New("invalid secp256k1 public key")
	ErrInvalidAddressLen = errors.New("invalid address length")
	ErrInvalidAddressHex = errors.New("invalid address hex")
)

// Address identifies an account on both the native and the embedded EVM path.
type Address [AddressLength]byte

// PubkeyToAddress derives the canonical account address of a secp256k1 public key.
// Both the 33-byte compressed and the 65-byte uncompressed encodings are accepted and
// yield the same address: keccak256(X || Y)[12:].
func PubkeyToAddress(pub []byte) (Address, error) {
	key, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	return pubkeyToAddress(key), nil
}

func pubkeyToAddress(key *secp256k1.PublicKey) Address {
	uncompressed := key.SerializeUncompressed()
	var a Address
	copy(a[:], Keccak256(uncompressed[1:])[12:])
	return a
}

// BytesToAddress left-pads or truncates b (keeping the rightmost bytes) into an Address.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress strictly parses a 0x-prefixed (or bare) 40 hex character address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*AddressLength {
		return Address{}, fmt.Errorf("%w: got %d hex chars, want %d", ErrInvalidAddressLen, len(s), 2*AddressLength)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddressHex, err)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for literals known to be valid.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// EVM presents the address as a go-ethereum address. It is a reinterpretation of the
// same 20 bytes and cannot fail.
func (a Address) EVM() ethcommon.Address {
	return ethcommon.Address(a)
}

// FromEVM is the inverse of Address.EVM.
func FromEVM(a ethcommon.Address) Address {
	return Address(a)
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == Address{} }

// Hex returns the EIP-55 checksummed form.
func (a Address) Hex() string { return a.EVM().Hex() }

func (a Address) String() string { return a.Hex() }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
