package cmd

import (
	"fmt"

	"github.com/globalfoundation/gnf/config"
	"github.com/globalfoundation/gnf/genesis"
	"github.com/globalfoundation/gnf/ledger"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/store"
	"github.com/spf13/cobra"
)

type InitConfig struct {
	Chain      string
	ConfigPath string
	CodePath   string
	PublicKey  string
}

var initConfig InitConfig

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the genesis block and state into the node store",
	Long: `Initialize node state by:
- Loading and checking the runtime code
- Building genesis state from the chain profile
- Committing block 0 to the configured store

Running it again over the same store and genesis is a no-op; a different genesis is refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeCfg, err := loadNodeConfig(initConfig.ConfigPath)
		if err != nil {
			return fmt.Errorf("load node config: %w", err)
		}
		profile, err := config.ResolveProfile(initConfig.Chain)
		if err != nil {
			return err
		}
		code, err := loadCode(cmd.Context(), initConfig.CodePath, initConfig.PublicKey)
		if err != nil {
			return err
		}
		g, err := genesis.Build(profile, code.Blob)
		if err != nil {
			return err
		}

		stores, err := store.CreateStore(&nodeCfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer stores.Close()

		l, err := ledger.NewLedger(stores, ledgerConfig(nodeCfg), nil, nil, nil)
		if err != nil {
			return err
		}
		b, err := l.InitGenesis(g)
		if err != nil {
			return err
		}

		logx.Info("INIT", "Chain:", profile.Name, "("+profile.ID+")")
		logx.Info("INIT", "Genesis block hash:", b.Hash())
		logx.Info("INIT", "Genesis state root:", b.Header.StateRoot)
		logx.Info("INIT", "Store:", nodeCfg.Store.Type, nodeCfg.Store.Directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initConfig.Chain, "chain", "dev", "Built-in profile (dev, local, live) or path to a YAML profile")
	initCmd.Flags().StringVar(&initConfig.ConfigPath, "config", "", "Node .ini config; defaults apply when omitted")
	initCmd.Flags().StringVar(&initConfig.CodePath, "code", "", "Path to the runtime wasm blob")
	initCmd.Flags().StringVar(&initConfig.PublicKey, "code-pubkey", "", "Minisign public key the runtime must be signed with")
}
