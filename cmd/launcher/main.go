package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityLaunch/internal/config"
	"liquidityLaunch/internal/storage"
	"liquidityLaunch/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "launcher",
		Short:        "Time-scheduled liquidity release tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	curveCmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the target release curve per epoch",
		RunE:  runCurve,
	}
	scheduleFlags(curveCmd.Flags())
	curveCmd.Flags().Uint8("decimals", 18, "release token decimals for formatted amounts")
	curveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(curveCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a release schedule against an in-memory pool",
		RunE:  runSimulate,
	}
	scheduleFlags(simulateCmd.Flags())
	simulateCmd.Flags().Duration("step", time.Hour, "time advanced between buys")
	simulateCmd.Flags().String("buyer-liquidity", "0", "liquidity of the counterparty position over the schedule range")
	simulateCmd.Flags().String("buy-amount", "0", "counter token spent by the buyer each step")
	simulateCmd.Flags().Int32("initial-tick", 0, "initial pool tick")
	simulateCmd.Flags().String("out", "./data/sync_events.jsonl", "output sync events JSONL")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	simulateCmd.Flags().String("state-file", "", "optional local state file for the final snapshot")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(simulateCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the reconciliation a live pool would receive now",
		RunE:  runInspect,
	}
	scheduleFlags(inspectCmd.Flags())
	inspectCmd.Flags().String("rpc", "", "RPC URL")
	inspectCmd.Flags().String("pool", "", "V3-style pool address")
	inspectCmd.Flags().String("pool-id", "", "snapshot key (defaults to the pool address)")
	inspectCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	inspectCmd.Flags().String("state-file", "", "optional local state file")
	inspectCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	inspectCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(inspectCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func scheduleFlags(flags *pflag.FlagSet) {
	flags.String("total-amount", "", "total release amount in smallest units")
	flags.String("start", "", "release start (unix seconds or RFC3339)")
	flags.String("end", "", "release end (unix seconds or RFC3339)")
	flags.Int32("min-tick", 0, "lower tick of the release range")
	flags.Int32("max-tick", 0, "upper tick of the release range")
	flags.Bool("release-token0", true, "release currency0 (false releases currency1)")
	flags.Duration("epoch-size", time.Hour, "reconciliation epoch length")
	flags.Int32("tick-spacing", 60, "pool tick spacing")
	flags.Uint32("fee", 3000, "pool fee in hundredths of a bip")
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

// openProgressStore prefers the state file and falls back to Postgres.
// The returned Store is nil when no DSN is configured.
func openProgressStore(ctx context.Context, cfg config.Config) (storage.ProgressStore, *postgres.Store, error) {
	var pg *postgres.Store
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		pg = store
	}

	if cfg.StateFile != "" {
		return &storage.FileProgressStore{Path: cfg.StateFile}, pg, nil
	}
	return &storage.DBProgressStore{Store: pg}, pg, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
