package config

import (
	"fmt"

	"github.com/globalfoundation/gnf/authorship"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/dispatch"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/session"
	"github.com/globalfoundation/gnf/store"
	"github.com/globalfoundation/gnf/types"
	"gopkg.in/ini.v1"
)

// WeightsConfig overrides the block weight limits and gas conversion.
type WeightsConfig struct {
	MaxBlock            types.Weight `ini:"max_block"`
	NormalRatio         uint64       `ini:"normal_ratio"`
	ExtrinsicBaseWeight types.Weight `ini:"extrinsic_base"`
	WeightPerGas        uint64       `ini:"weight_per_gas"`
}

type AuthorConfig struct {
	Mode authorship.Mode `ini:"mode"`
}

// NodeConfig is the node's runtime configuration, one ini section per component.
type NodeConfig struct {
	Fees    fees.Shares
	Weights WeightsConfig
	Session session.Config
	Store   store.StoreConfig
	Author  AuthorConfig
}

func DefaultNodeConfig() *NodeConfig {
	d := dispatch.DefaultConfig(common.Hash{})
	return &NodeConfig{
		Fees: fees.DefaultShares(),
		Weights: WeightsConfig{
			MaxBlock:            d.Weights.MaxBlock,
			NormalRatio:         d.Weights.NormalRatio,
			ExtrinsicBaseWeight: d.Weights.ExtrinsicBaseWeight,
			WeightPerGas:        d.WeightPerGas,
		},
		Session: session.DefaultConfig(),
		Store:   store.StoreConfig{Type: store.MemoryStoreType},
		Author:  AuthorConfig{Mode: authorship.ModeSessionKey},
	}
}

// LoadNodeConfig reads an .ini file over the defaults. Missing sections keep their
// defaults.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultNodeConfig()
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"fees", &cfg.Fees},
		{"weights", &cfg.Weights},
		{"session", &cfg.Session},
		{"store", &cfg.Store},
		{"author", &cfg.Author},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *NodeConfig) Validate() error {
	if err := c.Fees.Validate(); err != nil {
		return fmt.Errorf("[fees] %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("[session] %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("[store] %w", err)
	}
	if _, err := authorship.NewFinder(c.Author.Mode); err != nil {
		return fmt.Errorf("[author] %w", err)
	}
	if err := c.DispatchConfig(common.Hash{}).Validate(); err != nil {
		return fmt.Errorf("[weights] %w", err)
	}
	return nil
}

// DispatchConfig builds the dispatcher constants for a chain with the given genesis hash.
func (c *NodeConfig) DispatchConfig(genesis common.Hash) dispatch.Config {
	d := dispatch.DefaultConfig(genesis)
	d.Weights = dispatch.BlockWeights{
		MaxBlock:            c.Weights.MaxBlock,
		NormalRatio:         c.Weights.NormalRatio,
		ExtrinsicBaseWeight: c.Weights.ExtrinsicBaseWeight,
	}
	d.WeightPerGas = c.Weights.WeightPerGas
	return d
}
