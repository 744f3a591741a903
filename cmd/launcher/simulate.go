package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityLaunch/internal/config"
	"liquidityLaunch/internal/engine"
	"liquidityLaunch/internal/hook"
	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
	"liquidityLaunch/internal/storage"
)

// Fixed actors of the in-memory simulation.
var (
	simManager = common.HexToAddress("0x000000000000000000000000000000000000a000")
	simHook    = common.HexToAddress("0x000000000000000000000000000000000000b000")
	simToken0  = common.HexToAddress("0x1000000000000000000000000000000000000000")
	simToken1  = common.HexToAddress("0x2000000000000000000000000000000000000000")
	simOwner   = common.HexToAddress("0x000000000000000000000000000000000000c000")
	simBuyer   = common.HexToAddress("0x000000000000000000000000000000000000d000")
)

type simulation struct {
	engine *engine.Engine
	hook   *hook.Hook
	key    model.PoolKey
	logger *zap.Logger
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	schedule, epochSize, err := cfg.Schedule()
	if err != nil {
		return err
	}
	if cfg.Step <= 0 {
		return fmt.Errorf("step must be positive")
	}
	step := uint64(cfg.Step / time.Second)
	if step == 0 {
		return fmt.Errorf("step must be at least 1s")
	}
	buyerLiquidity, err := model.ParseBigInt(cfg.BuyerLiquidity)
	if err != nil {
		return fmt.Errorf("buyer liquidity: %w", err)
	}
	buyAmount, err := model.ParseBigInt(cfg.BuyAmount)
	if err != nil {
		return fmt.Errorf("buy amount: %w", err)
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progressStore, pg, err := openProgressStore(ctx, cfg.Config)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	sim, err := newSimulation(ctx, schedule, epochSize, cfg, logger)
	if err != nil {
		return err
	}
	id := sim.key.ID()

	logger.Info("simulate start",
		zap.String("pool", id.Hex()),
		zap.Uint64("start", schedule.StartTime),
		zap.Uint64("end", schedule.EndTime),
		zap.Uint64("epoch_size", epochSize),
		zap.Uint64("step", step),
		zap.String("buy_amount", buyAmount.String()),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	if buyerLiquidity.Sign() > 0 {
		if err := sim.provide(ctx, schedule.MinTick, schedule.MaxTick, buyerLiquidity); err != nil {
			return fmt.Errorf("buyer liquidity: %w", err)
		}
	}

	if err := sim.run(ctx, schedule, epochSize, step, buyAmount); err != nil {
		return err
	}

	events := sim.hook.DrainEvents()
	if err := storage.NewJsonlStorage(cfg.Out).PutEvents(events); err != nil {
		return err
	}

	progress, err := sim.hook.Progress(id)
	if err != nil {
		return err
	}
	snapshot := model.PoolSnapshot{
		PoolID:   id.Hex(),
		Key:      sim.key,
		Schedule: schedule,
		Progress: progress,
	}
	if pg != nil {
		if err := pg.UpsertSchedules(ctx, []model.PoolSnapshot{snapshot}); err != nil {
			return err
		}
		if err := pg.UpsertSyncEvents(ctx, events); err != nil {
			return err
		}
	}
	if err := progressStore.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("simulate complete",
		zap.Int("events", len(events)),
		zap.String("amount_released", model.BigString(progress.AmountReleased)),
		zap.String("owner_token0", sim.engine.BalanceOf(simToken0, simOwner).String()),
		zap.String("owner_token1", sim.engine.BalanceOf(simToken1, simOwner).String()),
	)
	return nil
}

func newSimulation(ctx context.Context, schedule model.Schedule, epochSize uint64, cfg config.SimulateConfig, logger *zap.Logger) (*simulation, error) {
	e := engine.New(simManager, logger)
	hk := hook.New(simHook, e, logger)
	e.RegisterHook(simHook, hk)

	releaseToken := simToken1
	if schedule.IsReleaseTokenFirst {
		releaseToken = simToken0
	}
	if err := e.Mint(releaseToken, simOwner, schedule.TotalAmount); err != nil {
		return nil, fmt.Errorf("fund owner: %w", err)
	}

	key := model.PoolKey{
		Currency0:   simToken0,
		Currency1:   simToken1,
		Fee:         cfg.Fee,
		TickSpacing: cfg.TickSpacing,
		Hooks:       simHook,
	}
	payload, err := hook.EncodePayload(schedule, epochSize)
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := liquidity.SqrtPriceAtTick(cfg.InitialTick)
	if err != nil {
		return nil, fmt.Errorf("initial tick: %w", err)
	}

	e.Warp(schedule.StartTime)
	if _, err := e.Initialize(ctx, simOwner, key, sqrtPrice, payload); err != nil {
		return nil, fmt.Errorf("initialize pool: %w", err)
	}
	return &simulation{engine: e, hook: hk, key: key, logger: logger}, nil
}

// run steps time across the window, buying and syncing at every step, and
// finalizes once the end epoch has been reached.
func (s *simulation) run(ctx context.Context, schedule model.Schedule, epochSize, step uint64, buyAmount *big.Int) error {
	id := s.key.ID()
	for ts := schedule.StartTime; ts < schedule.EndTime; ts += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.engine.Warp(ts)
		if buyAmount.Sign() > 0 {
			if err := s.buy(ctx, !schedule.IsReleaseTokenFirst, buyAmount); err != nil {
				return fmt.Errorf("buy at %d: %w", ts, err)
			}
		}
		if err := s.hook.Sync(ctx, id); err != nil {
			return fmt.Errorf("sync at %d: %w", ts, err)
		}
		s.logStep(ts)
	}

	finalizeAt := release.EpochFloor(schedule.EndTime, epochSize)
	if finalizeAt < schedule.EndTime {
		finalizeAt += epochSize
	}
	s.engine.Warp(finalizeAt)
	if err := s.hook.Finalize(ctx, simOwner, id); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	s.logStep(finalizeAt)
	return nil
}

func (s *simulation) provide(ctx context.Context, lower, upper int32, liq *big.Int) error {
	return s.engine.Unlock(ctx, simBuyer, func(ctx context.Context) error {
		delta, err := s.engine.ModifyLiquidity(ctx, simBuyer, s.key, model.ModifyLiquidityParams{
			TickLower:      lower,
			TickUpper:      upper,
			LiquidityDelta: liq,
		})
		if err != nil {
			return err
		}
		return s.settle(delta)
	})
}

func (s *simulation) buy(ctx context.Context, zeroForOne bool, amount *big.Int) error {
	return s.engine.Unlock(ctx, simBuyer, func(ctx context.Context) error {
		delta, err := s.engine.Swap(ctx, simBuyer, s.key, model.SwapParams{ZeroForOne: zeroForOne, AmountIn: amount})
		if err != nil {
			return err
		}
		return s.settle(delta)
	})
}

// settle resolves the buyer's delta, minting whatever the buyer owes first.
func (s *simulation) settle(delta model.BalanceDelta) error {
	for _, first := range []bool{true, false} {
		currency := s.key.Currency(first)
		amount := delta.Amount(first)
		switch amount.Sign() {
		case -1:
			owed := new(big.Int).Neg(amount)
			if err := s.engine.Mint(currency, simBuyer, owed); err != nil {
				return err
			}
			if err := s.engine.Settle(simBuyer, currency, owed); err != nil {
				return err
			}
		case 1:
			if err := s.engine.Take(simBuyer, currency, simBuyer, amount); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *simulation) logStep(ts uint64) {
	id := s.key.ID()
	slot0, err := s.engine.Slot0(id)
	if err != nil {
		s.logger.Warn("slot0 unavailable", zap.Error(err))
		return
	}
	progress, err := s.hook.Progress(id)
	if err != nil {
		s.logger.Warn("progress unavailable", zap.Error(err))
		return
	}
	s.logger.Info("simulate step",
		zap.Uint64("ts", ts),
		zap.Int32("tick", slot0.Tick),
		zap.Int32("floor_tick", progress.CurrentFloorTick),
		zap.String("amount_released", model.BigString(progress.AmountReleased)),
		zap.Int("reconciled_epochs", len(progress.ReconciledEpochs)),
	)
}
