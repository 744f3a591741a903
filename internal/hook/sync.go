package hook

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

// Sync reconciles the pool with its target curve for the current epoch.
// It is a no-op when the epoch already ran or the pool was finalized, and
// fails with release.ErrBeforeStartTime before the window opens.
func (h *Hook) Sync(ctx context.Context, id model.PoolID) error {
	rec, ok := h.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	now := h.engine.Now()
	if !release.ShouldReconcile(rec.Progress, now) {
		return nil
	}
	if now < rec.Schedule.StartTime {
		return fmt.Errorf("sync %s: %w", id.Hex(), release.ErrBeforeStartTime)
	}
	return h.withSession(ctx, func(ctx context.Context) error {
		// The session snapshot may have swapped the store; look the record up again.
		rec, ok := h.store.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
		}
		return h.reconcile(ctx, rec)
	})
}

// reconcile runs inside an unlock session.
func (h *Hook) reconcile(ctx context.Context, rec *Record) error {
	id := rec.Key.ID()
	if !h.engine.IsUnlocked() {
		return fmt.Errorf("reconcile %s: %w", id.Hex(), ErrLocked)
	}
	now := h.engine.Now()
	progress := &rec.Progress
	if !release.ShouldReconcile(*progress, now) {
		h.logger.Debug("sync skipped", zap.String("pool", id.Hex()), zap.Uint64("epoch", release.EpochFloor(now, progress.EpochSize)))
		return nil
	}

	slot0, err := h.engine.Slot0(id)
	if err != nil {
		return err
	}
	plan, err := PlanSync(rec.Schedule, *progress, rec.Key.TickSpacing, slot0.SqrtPriceX96, now)
	if err != nil {
		return fmt.Errorf("plan sync %s: %w", id.Hex(), err)
	}
	progress.AmountReleased = new(big.Int).Set(plan.TargetAmount)

	sold := big.NewInt(0)
	var liq *big.Int
	switch plan.Branch {
	case model.BranchExtend:
		liq, err = h.replacePosition(ctx, rec, plan.Delta, plan.TargetFloor)
		if err != nil {
			return err
		}
	default:
		sold, err = h.sellDown(ctx, rec, plan.Delta, plan.TargetFloor)
		if err != nil {
			return err
		}
		if sold.Cmp(plan.Delta) < 0 {
			rest := new(big.Int).Sub(plan.Delta, sold)
			liq, err = h.replacePosition(ctx, rec, rest, plan.TargetFloor)
			if err != nil {
				return err
			}
		}
	}
	progress.MarkReconciled(plan.Epoch)

	h.emit(model.SyncEvent{
		Kind:           model.EventSync,
		PoolID:         id.Hex(),
		Epoch:          plan.Epoch,
		Timestamp:      now,
		Branch:         plan.Branch,
		Delta:          plan.Delta.String(),
		Sold:           sold.String(),
		FloorTick:      progress.CurrentFloorTick,
		Liquidity:      model.BigString(liq),
		AmountReleased: progress.AmountReleased.String(),
	})
	h.logger.Info("pool synced",
		zap.String("pool", id.Hex()),
		zap.Uint64("epoch", plan.Epoch),
		zap.String("branch", plan.Branch),
		zap.String("delta", plan.Delta.String()),
		zap.String("sold", sold.String()),
		zap.Int32("floor_tick", progress.CurrentFloorTick),
	)
	return nil
}

// replacePosition closes the current position, adds increment to the amount
// it held and reopens everything with the floor at newFloor. It returns the
// liquidity of the new position.
func (h *Hook) replacePosition(ctx context.Context, rec *Record, increment *big.Int, newFloor int32) (*big.Int, error) {
	s := rec.Schedule
	id := rec.Key.ID()
	first := s.IsReleaseTokenFirst

	amount := new(big.Int).Set(increment)
	lower, upper := release.PositionRange(s, rec.Progress.CurrentFloorTick)
	current := h.engine.PositionLiquidity(id, rec.Custody, lower, upper)
	if current.Sign() > 0 {
		held, err := liquidity.ToAmount(lower, upper, current, first)
		if err != nil {
			return nil, err
		}
		_, err = h.execute(ctx, rec.Custody, ModifyPosition{
			Key:    rec.Key,
			Params: model.ModifyLiquidityParams{TickLower: lower, TickUpper: upper, LiquidityDelta: new(big.Int).Neg(current)},
		})
		if err != nil {
			return nil, fmt.Errorf("withdraw position: %w", err)
		}
		amount.Add(amount, held)
	}

	lower, upper = release.PositionRange(s, newFloor)
	next, err := liquidity.ForAmount(lower, upper, amount, first)
	if err != nil {
		return nil, err
	}
	if next.Sign() > 0 {
		_, err = h.execute(ctx, rec.Custody, ModifyPosition{
			Key:    rec.Key,
			Params: model.ModifyLiquidityParams{TickLower: lower, TickUpper: upper, LiquidityDelta: next},
		})
		if err != nil {
			return nil, fmt.Errorf("deposit position: %w", err)
		}
	}
	rec.Progress.CurrentFloorTick = newFloor
	return next, nil
}

// sellDown sells up to amount of the release token with the price limited
// at floor and returns how much custody was spent.
func (h *Hook) sellDown(ctx context.Context, rec *Record, amount *big.Int, floor int32) (*big.Int, error) {
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	id := rec.Key.ID()
	first := rec.Schedule.IsReleaseTokenFirst
	currency := rec.Key.Currency(first)
	limit, err := liquidity.SqrtPriceAtTick(floor)
	if err != nil {
		return nil, err
	}

	before := h.engine.BalanceOf(currency, rec.Custody)
	leave, err := h.guard.enter(id)
	if err != nil {
		return nil, err
	}
	_, err = func() (model.BalanceDelta, error) {
		defer leave()
		return h.execute(ctx, rec.Custody, Swap{
			Key: rec.Key,
			Params: model.SwapParams{
				ZeroForOne:        first,
				AmountIn:          new(big.Int).Set(amount),
				SqrtPriceLimitX96: limit,
			},
		})
	}()
	if err != nil {
		return nil, fmt.Errorf("sell release token: %w", err)
	}
	after := h.engine.BalanceOf(currency, rec.Custody)
	return new(big.Int).Sub(before, after), nil
}
