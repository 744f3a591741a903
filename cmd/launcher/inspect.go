package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityLaunch/internal/chain"
	"liquidityLaunch/internal/config"
	"liquidityLaunch/internal/dex"
	"liquidityLaunch/internal/hook"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

type inspectReport struct {
	Pool     model.LivePool `json:"pool"`
	PoolID   string         `json:"pool_id"`
	Snapshot bool           `json:"from_snapshot"`
	Progress model.Progress `json:"progress"`
	Plan     *hook.Plan     `json:"plan,omitempty"`
	Note     string         `json:"note,omitempty"`
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	poolID, _ := cmd.Flags().GetString("pool-id")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	poolAddr, err := config.ParseAddress(cfg.Pool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	if poolID == "" {
		poolID = poolAddr.Hex()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	progressStore, pg, err := openProgressStore(ctx, cfg)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	cache := dex.NewTokenMetaCache()
	retry := chain.Retry{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff, MaxBackoff: 30 * time.Second, Logger: logger}
	var live model.LivePool
	err = retry.Do(ctx, "read pool", func(ctx context.Context) error {
		head, err := chainClient.Head(ctx)
		if err != nil {
			return err
		}
		pool, err := dex.ReadPool(ctx, chainClient, poolAddr, new(big.Int).SetUint64(head.Number), cache, logger)
		if err != nil {
			return err
		}
		pool.Timestamp = head.Timestamp
		live = pool
		return nil
	})
	if err != nil {
		return fmt.Errorf("read pool: %w", err)
	}

	report := inspectReport{Pool: live, PoolID: poolID}
	snap, found, err := progressStore.Load(ctx, poolID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	var schedule model.Schedule
	if found {
		schedule = snap.Schedule
		report.Snapshot = true
		report.Progress = snap.Progress
	} else {
		var epochSize uint64
		schedule, epochSize, err = cfg.Schedule()
		if err != nil {
			return fmt.Errorf("no snapshot for %s and no schedule configured: %w", poolID, err)
		}
		report.Progress = model.Progress{
			AmountReleased:   big.NewInt(0),
			CurrentFloorTick: release.WideTick(schedule),
			EpochSize:        epochSize,
		}
	}

	sqrtPrice, err := model.ParseBigInt(live.SqrtPriceX96)
	if err != nil {
		return fmt.Errorf("sqrt price: %w", err)
	}
	plan, err := hook.PlanSync(schedule, report.Progress, live.TickSpacing, sqrtPrice, live.Timestamp)
	switch {
	case errors.Is(err, release.ErrBeforeStartTime):
		report.Note = "release window has not opened"
	case err != nil:
		return fmt.Errorf("plan sync: %w", err)
	default:
		report.Plan = &plan
	}

	logger.Info("inspect",
		zap.String("pool", live.Address),
		zap.Uint64("block", live.BlockNumber),
		zap.Int32("tick", live.Tick),
		zap.Bool("from_snapshot", report.Snapshot),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
