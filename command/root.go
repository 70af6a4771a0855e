package command

import (
	"context"
	"os"
	"os/signal"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	walletName string
	rpcURL     string
	assumeYes  bool
	verbosity  string
)

// Execute runs the CLI. Without a subcommand it opens the terminal UI.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memestake",
		Short: "Liquid staking and yield client",
		Long: `memestake stakes M for igM, deposits igM into the yield vault for vigM
and manages withdrawals, from a terminal UI or from the command line.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return loadConfig() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data folder (default: per OS, ~/.memestake on linux)")
	rootCmd.PersistentFlags().StringVar(&walletName, "wallet", "", "wallet to unlock (default from config)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "json-rpc endpoint (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "sign transactions without asking")
	rootCmd.PersistentFlags().StringVar(&verbosity, "verbosity", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(createWalletCmd())
	rootCmd.AddCommand(createLoginCmd())
	rootCmd.AddCommand(createBalanceCmd())
	rootCmd.AddCommand(createStakeCmd())
	rootCmd.AddCommand(createUnstakeCmd())
	rootCmd.AddCommand(createEarnCmd())
	rootCmd.AddCommand(createSimulateCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// loadConfig layers the config file, MEMESTAKE_* variables and flags, in
// that order.
func loadConfig() error {
	cmn.Config = cmn.DefaultConfig()
	if err := cmn.InitConfig(dataDir); err != nil {
		return err
	}

	if rpcURL != "" {
		cmn.Config.RPCURL = rpcURL
	}
	if walletName != "" {
		cmn.Config.Wallet = walletName
	}
	if verbosity != "" {
		cmn.Config.Verbosity = verbosity
		cmn.SetVerbosity(verbosity)
	}
	return nil
}
