package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"gopkg.in/yaml.v3"
)

// ChainType is the deployment tier a profile targets.
type ChainType string

const (
	ChainDevelopment ChainType = "Development"
	ChainLocal       ChainType = "Local"
	ChainLive        ChainType = "Live"
)

func (c ChainType) Valid() bool {
	switch c {
	case ChainDevelopment, ChainLocal, ChainLive:
		return true
	}
	return false
}

// Amount is a balance in the smallest unit. In text form it is a decimal integer,
// optionally followed by " GNF" to mean whole tokens.
type Amount struct {
	value *uint256.Int
}

func NewAmount(v *uint256.Int) Amount { return Amount{value: new(uint256.Int).Set(v)} }

func (a Amount) Value() *uint256.Int {
	if a.value == nil {
		return uint256.NewInt(0)
	}
	return a.value
}

func (a Amount) MarshalText() ([]byte, error) { return []byte(a.Value().Dec()), nil }

func (a *Amount) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	whole := false
	if strings.HasSuffix(s, types.TokenSymbol) {
		s = strings.TrimSpace(strings.TrimSuffix(s, types.TokenSymbol))
		whole = true
	}
	s = strings.ReplaceAll(s, "_", "")
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if whole {
		if _, overflow := v.MulOverflow(v, uint256.NewInt(types.UnitGNF)); overflow {
			return fmt.Errorf("amount %q overflows", text)
		}
	}
	a.value = v
	return nil
}

// Endowment is a pre-funded account.
type Endowment struct {
	Address common.Address `json:"address" yaml:"address"`
	Balance Amount         `json:"balance" yaml:"balance"`
}

// Properties is the token metadata published in the chain spec.
type Properties struct {
	TokenDecimals int    `json:"tokenDecimals" yaml:"token_decimals"`
	TokenSymbol   string `json:"tokenSymbol" yaml:"token_symbol"`
}

func DefaultProperties() Properties {
	return Properties{TokenDecimals: types.TokenDecimals, TokenSymbol: types.TokenSymbol}
}

// Profile is the declarative description of a deployment's initial ledger state.
type Profile struct {
	Name         string            `json:"name" yaml:"name"`
	ID           string            `json:"id" yaml:"id"`
	ChainType    ChainType         `json:"chainType" yaml:"chain_type"`
	Authorities  []types.Authority `json:"authorities" yaml:"authorities"`
	Root         common.Address    `json:"root" yaml:"root"`
	Endowed      []Endowment       `json:"endowed" yaml:"endowed"`
	Verbose      bool              `json:"verbose" yaml:"verbose"`
	Bootnodes    []string          `json:"bootNodes" yaml:"bootnodes"`
	TelemetryURL string            `json:"telemetryEndpoint,omitempty" yaml:"telemetry_url"`
	ProtocolID   string            `json:"protocolId,omitempty" yaml:"protocol_id"`
	Properties   Properties        `json:"properties" yaml:"properties"`
}

// EndowedAccounts lists the pre-funded addresses in profile order.
func (p *Profile) EndowedAccounts() []common.Address {
	out := make([]common.Address, len(p.Endowed))
	for i, e := range p.Endowed {
		out[i] = e.Address
	}
	return out
}

// BalanceOf is the literal balance the profile assigns to addr; unlisted accounts get zero.
func (p *Profile) BalanceOf(addr common.Address) *uint256.Int {
	for _, e := range p.Endowed {
		if e.Address == addr {
			return new(uint256.Int).Set(e.Balance.Value())
		}
	}
	return uint256.NewInt(0)
}

func (p *Profile) Validate() error {
	if p.Name == "" || p.ID == "" {
		return fmt.Errorf("profile name and id are required")
	}
	if !p.ChainType.Valid() {
		return fmt.Errorf("unknown chain type %q", p.ChainType)
	}
	if len(p.Authorities) == 0 {
		return fmt.Errorf("profile %s has no initial authorities", p.ID)
	}
	seen := make(map[common.Address]bool, len(p.Authorities))
	for _, a := range p.Authorities {
		if seen[a.Address] {
			return fmt.Errorf("duplicate authority %s", a.Address)
		}
		seen[a.Address] = true
	}
	if p.Root.IsZero() {
		return fmt.Errorf("profile %s has no root account", p.ID)
	}
	funded := make(map[common.Address]bool, len(p.Endowed))
	for _, e := range p.Endowed {
		if funded[e.Address] {
			return fmt.Errorf("account %s endowed twice", e.Address)
		}
		funded[e.Address] = true
	}
	for _, addr := range p.Bootnodes {
		if _, err := ParseBootnode(addr); err != nil {
			return err
		}
	}
	return nil
}

// ParseBootnode checks that addr is a multiaddr ending in a /p2p/<peer id> component.
func ParseBootnode(addr string) (*peer.AddrInfo, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid bootnode %q: %w", addr, err)
	}
	id, err := ma.ValueForProtocol(multiaddr.P_P2P)
	if err != nil {
		return nil, fmt.Errorf("bootnode %q has no peer id: %w", addr, err)
	}
	if _, err := peer.Decode(id); err != nil {
		return nil, fmt.Errorf("bootnode %q has invalid peer id: %w", addr, err)
	}
	return peer.AddrInfoFromP2pAddr(ma)
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	p := &Profile{Properties: DefaultProperties()}
	if err := yaml.NewDecoder(file).Decode(p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logx.Info("CONFIG", fmt.Sprintf("loaded profile %s (%s) with %d authorities, %d endowed accounts",
		p.Name, p.ID, len(p.Authorities), len(p.Endowed)))
	return p, nil
}

// ResolveProfile maps a --chain argument to a built-in profile id or a YAML file path.
func ResolveProfile(chain string) (*Profile, error) {
	if p, ok := ProfileByID(chain); ok {
		return p, nil
	}
	if strings.HasSuffix(chain, ".yml") || strings.HasSuffix(chain, ".yaml") {
		return LoadProfile(chain)
	}
	return nil, fmt.Errorf("unknown chain %q", chain)
}
