package cmd

import (
	"github.com/globalfoundation/gnf/jsonx"
	"github.com/spf13/cobra"
)

var inspectPublicKey string

type codeReport struct {
	Size     int      `json:"size"`
	Hash     string   `json:"hash"`
	Signed   bool     `json:"signed"`
	Exports  []string `json:"exports"`
	Memories []string `json:"memories"`
}

var inspectCodeCmd = &cobra.Command{
	Use:   "inspect-code <runtime.wasm>",
	Short: "Check a runtime blob and list its exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := loadCode(cmd.Context(), args[0], inspectPublicKey)
		if err != nil {
			return err
		}
		out, err := jsonx.MarshalIndent(codeReport{
			Size:     len(code.Blob),
			Hash:     code.Hash.Hex(),
			Signed:   code.Signed,
			Exports:  code.Exports,
			Memories: code.Memories,
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(out, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCodeCmd)
	inspectCodeCmd.Flags().StringVar(&inspectPublicKey, "code-pubkey", "", "Minisign public key the runtime must be signed with")
}
