package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/block"
	"github.com/globalfoundation/gnf/events"
	"github.com/globalfoundation/gnf/ledger"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/store"
	"github.com/spf13/cobra"
)

type BlocksConfig struct {
	ConfigPath string
	File       string
	From       uint64
}

var blocksConfig BlocksConfig

var exportBlocksCmd = &cobra.Command{
	Use:   "export-blocks",
	Short: "Write committed blocks to an RLP file",
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			return err
		}
		defer stores.Close()

		latest, ok := stores.Blocks.LatestNumber()
		if !ok {
			return ledger.ErrNotInitialized
		}
		var out []*block.Block
		for n := blocksConfig.From; n <= latest; n++ {
			b, err := stores.Blocks.Block(n)
			if err != nil {
				return fmt.Errorf("load block %d: %w", n, err)
			}
			out = append(out, b)
		}
		enc, err := rlp.EncodeToBytes(out)
		if err != nil {
			return err
		}
		if err := os.WriteFile(blocksConfig.File, enc, 0o644); err != nil {
			return err
		}
		logx.Info("EXPORT", fmt.Sprintf("Exported blocks %d..%d to %s", blocksConfig.From, latest, blocksConfig.File))
		return nil
	},
}

var importBlocksCmd = &cobra.Command{
	Use:   "import-blocks",
	Short: "Apply blocks from an RLP file on top of the stored head",
	Long: `Imports blocks exported by export-blocks. Every block is fully re-executed and must
reproduce its state root. Blocks at or below the current head are skipped; the first block
that fails stops the import with nothing of it written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeCfg, err := loadNodeConfig(blocksConfig.ConfigPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(blocksConfig.File)
		if err != nil {
			return err
		}
		var blocks []*block.Block
		if err := rlp.DecodeBytes(data, &blocks); err != nil {
			return fmt.Errorf("decode %s: %w", blocksConfig.File, err)
		}

		stores, err := store.CreateStore(&nodeCfg.Store)
		if err != nil {
			return err
		}
		defer stores.Close()

		bus := events.NewEventBus()
		id, ch := bus.SubscribeBuffered(importBuffer(blocks), events.EventExtrinsicApplied, events.EventBlockImported)
		defer bus.Unsubscribe(id)

		l, err := ledger.NewLedger(stores, ledgerConfig(nodeCfg), nil, nil, bus)
		if err != nil {
			return err
		}
		if l.Head() == nil {
			return ledger.ErrNotInitialized
		}

		imported := 0
		for _, b := range blocks {
			if b.Header.Number <= l.Head().Header.Number {
				continue
			}
			if err := l.ApplyBlock(b); err != nil {
				return err
			}
			imported++
			if drainImportEvents(ch) != 1 {
				logx.Warn("IMPORT", fmt.Sprintf("Block %d imported without a summary event", b.Header.Number))
			}
		}
		logx.Info("IMPORT", fmt.Sprintf("Imported %d of %d blocks, head is %d", imported, len(blocks), l.Head().Header.Number))
		return nil
	},
}

// importBuffer is how many events one imported block can publish: one per extrinsic and
// the block summary. Events are drained between blocks, so none are lost.
func importBuffer(blocks []*block.Block) int {
	most := 0
	for _, b := range blocks {
		if len(b.Extrinsics) > most {
			most = len(b.Extrinsics)
		}
	}
	return most + 1
}

// drainImportEvents logs what is waiting on ch and returns how many block summaries it saw.
func drainImportEvents(ch <-chan events.LedgerEvent) int {
	summaries := 0
	for {
		select {
		case ev := <-ch:
			switch e := ev.(type) {
			case *events.ExtrinsicApplied:
				if !e.Succeeded() {
					logx.Warn("IMPORT", fmt.Sprintf("Extrinsic %d of block %d failed: %s", e.Index(), e.BlockNumber(), e.DispatchError()))
				}
			case *events.BlockImported:
				summaries++
				author, ok := e.Author()
				logx.Info("IMPORT", fmt.Sprintf("Block %d %s author=%s resolved=%v treasury=%s author_share=%s",
					e.Number(), e.Hash(), author, ok, e.TreasuryShare(), e.AuthorShare()))
			}
		default:
			return summaries
		}
	}
}

func openStores() (*store.Stores, error) {
	nodeCfg, err := loadNodeConfig(blocksConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	return store.CreateStore(&nodeCfg.Store)
}

func init() {
	rootCmd.AddCommand(exportBlocksCmd, importBlocksCmd)
	for _, c := range []*cobra.Command{exportBlocksCmd, importBlocksCmd} {
		c.Flags().StringVar(&blocksConfig.ConfigPath, "config", "", "Node .ini config; defaults apply when omitted")
		c.Flags().StringVarP(&blocksConfig.File, "file", "f", "blocks.rlp", "Block file")
	}
	exportBlocksCmd.Flags().Uint64Var(&blocksConfig.From, "from", 1, "First block to export")
}
