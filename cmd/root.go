package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/config"
	"github.com/globalfoundation/gnf/exception"
	"github.com/globalfoundation/gnf/ledger"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/monitoring"
	"github.com/globalfoundation/gnf/runtimecode"
	"github.com/spf13/cobra"
)

var (
	logToFile   bool
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "gnf",
	Short: "GlobalFoundation node core CLI",
	Long:  "Command line interface for building chain specs and bootstrapping GlobalFoundation node state.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logToFile {
			if err := logx.InitFileLogger(); err != nil {
				return err
			}
		}
		monitoring.InitMetrics()
		if metricsAddr != "" {
			serveMetrics(metricsAddr)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Write logs to a rotating file (LOGFILE, LOGFILE_MAX_SIZE_MB, LOGFILE_MAX_AGE_DAYS)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while the command runs")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	monitoring.RegisterMetrics(mux)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	exception.SafeGo("MetricsServer", func() {
		logx.Info("CMD", "Serving metrics on", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Error("CMD", "Metrics server stopped:", err)
		}
	})
}

// loadNodeConfig reads path, or returns the defaults when path is empty.
func loadNodeConfig(path string) (*config.NodeConfig, error) {
	if path == "" {
		return config.DefaultNodeConfig(), nil
	}
	return config.LoadNodeConfig(path)
}

func ledgerConfig(nc *config.NodeConfig) ledger.Config {
	return ledger.Config{
		Dispatch:   nc.DispatchConfig(common.Hash{}),
		Session:    nc.Session,
		Shares:     nc.Fees,
		AuthorMode: nc.Author.Mode,
	}
}

// loadCode loads the runtime blob, checking its signature when a public key is given.
func loadCode(ctx context.Context, path, publicKey string) (*runtimecode.Code, error) {
	if path == "" {
		return nil, fmt.Errorf("--code is required")
	}
	var verifier *runtimecode.Verifier
	if publicKey != "" {
		v, err := runtimecode.NewVerifier(publicKey)
		if err != nil {
			return nil, err
		}
		verifier = v
	}
	return runtimecode.Load(ctx, path, verifier)
}
