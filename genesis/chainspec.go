package genesis

import (
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/config"
	"github.com/globalfoundation/gnf/jsonx"
	"github.com/globalfoundation/gnf/types"
)

// ChainSpec is the exported description of a chain: profile metadata plus either the
// readable genesis configuration or the raw storage.
type ChainSpec struct {
	Name               string            `json:"name"`
	ID                 string            `json:"id"`
	ChainType          config.ChainType  `json:"chainType"`
	BootNodes          []string          `json:"bootNodes"`
	TelemetryEndpoints []string          `json:"telemetryEndpoints"`
	ProtocolID         string            `json:"protocolId,omitempty"`
	Properties         config.Properties `json:"properties"`
	Genesis            SpecGenesis       `json:"genesis"`
}

type SpecGenesis struct {
	Runtime *RuntimeConfig `json:"runtime,omitempty"`
	Raw     *RawStorage    `json:"raw,omitempty"`
}

type RawStorage struct {
	Top map[string]string `json:"top"`
}

type RuntimeConfig struct {
	Balances           []config.Endowment `json:"balances"`
	Validators         []common.Address   `json:"validators"`
	SessionKeys        []types.Authority  `json:"sessionKeys"`
	Sudo               common.Address     `json:"sudo"`
	TechnicalCommittee []common.Address   `json:"technicalCommittee"`
	BaseFeePerGas      uint64             `json:"baseFeePerGas"`
	CodeHash           common.Hash        `json:"codeHash"`
}

// NewChainSpec describes profile. With raw set the genesis section is the hex encoded
// storage produced by Build.
func NewChainSpec(profile *config.Profile, code []byte, raw bool) (*ChainSpec, error) {
	st, err := Build(profile, code)
	if err != nil {
		return nil, err
	}
	spec := &ChainSpec{
		Name:               profile.Name,
		ID:                 profile.ID,
		ChainType:          profile.ChainType,
		BootNodes:          append([]string{}, profile.Bootnodes...),
		TelemetryEndpoints: []string{},
		ProtocolID:         profile.ProtocolID,
		Properties:         profile.Properties,
	}
	if profile.TelemetryURL != "" {
		spec.TelemetryEndpoints = append(spec.TelemetryEndpoints, profile.TelemetryURL)
	}
	if raw {
		top := make(map[string]string)
		for k, v := range st.Storage() {
			top[common.EncodeHex([]byte(k))] = common.EncodeHex(v)
		}
		spec.Genesis.Raw = &RawStorage{Top: top}
		return spec, nil
	}

	validators := make([]common.Address, len(profile.Authorities))
	for i, a := range profile.Authorities {
		validators[i] = a.Address
	}
	spec.Genesis.Runtime = &RuntimeConfig{
		Balances:           profile.Endowed,
		Validators:         validators,
		SessionKeys:        profile.Authorities,
		Sudo:               profile.Root,
		TechnicalCommittee: TechnicalCommittee(profile),
		BaseFeePerGas:      BaseFeePerGas,
		CodeHash:           common.Keccak256Hash(code),
	}
	return spec, nil
}

// JSON renders the chain spec indented. Map keys come out sorted.
func (s *ChainSpec) JSON() ([]byte, error) {
	return jsonx.MarshalIndent(s, "", "  ")
}
