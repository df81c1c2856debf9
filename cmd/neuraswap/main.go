package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "neuraswap",
		Short:        "HOUSE/BICY swap, liquidity and faucet client for Neura testnet",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("rpc", "", "Neura RPC URL")
	flags.String("chain-id", "", "target chain id (decimal or 0x hex)")
	flags.String("wallet-key", "", "hex private key used to sign transactions")
	flags.Float64("slippage", 0.5, "default slippage percent used for auto")
	flags.String("journal", "./data/activity.jsonl", "activity journal JSONL path")
	flags.String("pg-dsn", "", "optional Postgres DSN mirroring the activity journal")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote the expected output for an input amount",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("from", "HOUSE", "input token (HOUSE or BICY)")
	quoteCmd.Flags().String("amount", "", "input amount in token units")
	root.AddCommand(quoteCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one token for the other with slippage protection",
		RunE:  runSwap,
	}
	swapCmd.Flags().String("from", "HOUSE", "input token (HOUSE or BICY)")
	swapCmd.Flags().String("amount", "", "input amount in token units")
	swapCmd.Flags().String("max-slippage", "auto", "slippage percent for this swap, or auto")
	root.AddCommand(swapCmd)

	addCmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Add HOUSE and BICY to the pool at the current ratio",
		RunE:  runAddLiquidity,
	}
	addCmd.Flags().String("house", "", "HOUSE amount; BICY is derived from the pool ratio")
	addCmd.Flags().String("bicy", "", "BICY amount; HOUSE is derived from the pool ratio")
	root.AddCommand(addCmd)

	root.AddCommand(&cobra.Command{
		Use:   "claim",
		Short: "Claim HOUSE and BICY from the faucet",
		RunE:  runClaim,
	})
	root.AddCommand(&cobra.Command{
		Use:   "cooldown",
		Short: "Show the remaining faucet cooldown",
		RunE:  runCooldown,
	})
	root.AddCommand(&cobra.Command{
		Use:   "balances",
		Short: "Show HOUSE and BICY balances of the wallet",
		RunE:  runBalances,
	})

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded client activity",
		RunE:  runHistory,
	}
	historyCmd.Flags().Int("limit", 20, "maximum records to list")
	root.AddCommand(historyCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the client over a local JSON API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", "127.0.0.1:8787", "API listen address")
	root.AddCommand(serveCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
