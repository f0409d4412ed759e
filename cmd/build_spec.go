package cmd

import (
	"os"

	"github.com/globalfoundation/gnf/config"
	"github.com/globalfoundation/gnf/genesis"
	"github.com/globalfoundation/gnf/logx"
	"github.com/spf13/cobra"
)

type BuildSpecConfig struct {
	Chain     string
	Raw       bool
	CodePath  string
	PublicKey string
	Output    string
}

var buildSpecConfig BuildSpecConfig

var buildSpecCmd = &cobra.Command{
	Use:   "build-spec",
	Short: "Print the chain spec of a profile as JSON",
	Long: `Builds the genesis of a chain profile and prints its chain spec.
Examples:
  # Human readable spec of the development chain
  build-spec --chain dev --code runtime.wasm

  # Raw storage form of a custom profile
  build-spec --chain ./staging.yaml --code runtime.wasm --raw -o staging.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.ResolveProfile(buildSpecConfig.Chain)
		if err != nil {
			return err
		}
		code, err := loadCode(cmd.Context(), buildSpecConfig.CodePath, buildSpecConfig.PublicKey)
		if err != nil {
			return err
		}
		spec, err := genesis.NewChainSpec(profile, code.Blob, buildSpecConfig.Raw)
		if err != nil {
			return err
		}
		out, err := spec.JSON()
		if err != nil {
			return err
		}
		out = append(out, '\n')

		if buildSpecConfig.Output == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(buildSpecConfig.Output, out, 0o644); err != nil {
			return err
		}
		logx.Info("BUILD SPEC", "Chain spec of", profile.ID, "written to", buildSpecConfig.Output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildSpecCmd)
	buildSpecCmd.Flags().StringVar(&buildSpecConfig.Chain, "chain", "dev", "Built-in profile (dev, local, live) or path to a YAML profile")
	buildSpecCmd.Flags().BoolVar(&buildSpecConfig.Raw, "raw", false, "Emit raw genesis storage instead of the readable runtime config")
	buildSpecCmd.Flags().StringVar(&buildSpecConfig.CodePath, "code", "", "Path to the runtime wasm blob")
	buildSpecCmd.Flags().StringVar(&buildSpecConfig.PublicKey, "code-pubkey", "", "Minisign public key the runtime must be signed with")
	buildSpecCmd.Flags().StringVarP(&buildSpecConfig.Output, "output", "o", "", "Write to this file instead of stdout")
}
