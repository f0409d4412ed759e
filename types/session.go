package types

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
)

// KeyLength is the size of every session role key (sr25519/ed25519 public keys).
const KeyLength = 32

// SessionKey is an opaque 32-byte role key.
type SessionKey [KeyLength]byte

func (k SessionKey) Bytes() []byte { return k[:] }

func (k SessionKey) Hex() string { return common.EncodeHex(k[:]) }

func (k SessionKey) MarshalText() ([]byte, error) { return []byte(k.Hex()), nil }

func (k *SessionKey) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseSessionKey parses a hex encoded 32-byte key.
func ParseSessionKey(s string) (SessionKey, error) {
	b, err := common.DecodeHex(s)
	if err != nil {
		return SessionKey{}, err
	}
	if len(b) != KeyLength {
		return SessionKey{}, fmt.Errorf("invalid session key length: got %d bytes, want %d", len(b), KeyLength)
	}
	var k SessionKey
	copy(k[:], b)
	return k, nil
}

// SessionKeys bundles the per-authority role keys: block production, finality and
// heartbeat.
type SessionKeys struct {
	Aura     SessionKey `json:"aura" yaml:"aura"`
	Grandpa  SessionKey `json:"grandpa" yaml:"grandpa"`
	ImOnline SessionKey `json:"im_online" yaml:"im_online"`
}

// Authority is an initial validator: its account address and role keys.
type Authority struct {
	Address common.Address `json:"address" yaml:"address"`
	Keys    SessionKeys    `json:"keys" yaml:"keys"`
}
