package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

// Finalize flushes the last increment, returns the position and all
// remaining custody of the pool's currencies to the owner and disables
// reconciliation for good.
func (h *Hook) Finalize(ctx context.Context, caller common.Address, id model.PoolID) error {
	rec, ok := h.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	if caller != rec.Progress.Owner {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller.Hex())
	}
	if rec.Progress.ReconciliationDisabled {
		return fmt.Errorf("%w: %s", ErrReconciliationDisabled, id.Hex())
	}
	now := h.engine.Now()
	if release.EpochFloor(now, rec.Progress.EpochSize) < rec.Schedule.EndTime {
		return fmt.Errorf("%w: epoch %d, end %d", ErrBeforeEndTime, release.EpochFloor(now, rec.Progress.EpochSize), rec.Schedule.EndTime)
	}

	return h.withSession(ctx, func(ctx context.Context) error {
		rec, ok := h.store.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
		}
		if err := h.reconcile(ctx, rec); err != nil {
			return err
		}

		owner := rec.Progress.Owner
		lower, upper := release.PositionRange(rec.Schedule, rec.Progress.CurrentFloorTick)
		withdrawn := h.engine.PositionLiquidity(id, rec.Custody, lower, upper)
		if withdrawn.Sign() > 0 {
			_, err := h.execute(ctx, rec.Custody, ModifyPosition{
				Key:       rec.Key,
				Params:    model.ModifyLiquidityParams{TickLower: lower, TickUpper: upper, LiquidityDelta: new(big.Int).Neg(withdrawn)},
				Recipient: owner,
			})
			if err != nil {
				return fmt.Errorf("withdraw to owner: %w", err)
			}
		}
		for _, currency := range []common.Address{rec.Key.Currency0, rec.Key.Currency1} {
			if err := h.engine.Transfer(currency, rec.Custody, owner, h.engine.BalanceOf(currency, rec.Custody)); err != nil {
				return fmt.Errorf("sweep %s: %w", currency.Hex(), err)
			}
		}
		rec.Progress.ReconciliationDisabled = true

		h.emit(model.SyncEvent{
			Kind:           model.EventFinalize,
			PoolID:         id.Hex(),
			Epoch:          release.EpochFloor(now, rec.Progress.EpochSize),
			Timestamp:      now,
			FloorTick:      rec.Progress.CurrentFloorTick,
			Liquidity:      withdrawn.String(),
			AmountReleased: rec.Progress.AmountReleased.String(),
			Owner:          owner.Hex(),
		})
		h.logger.Info("pool finalized",
			zap.String("pool", id.Hex()),
			zap.String("owner", owner.Hex()),
			zap.String("liquidity", withdrawn.String()),
		)
		return nil
	})
}

// TransferOwnership hands the pool to newOwner.
func (h *Hook) TransferOwnership(caller common.Address, id model.PoolID, newOwner common.Address) error {
	rec, ok := h.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	if caller != rec.Progress.Owner {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller.Hex())
	}
	rec.Progress.Owner = newOwner
	h.emit(model.SyncEvent{
		Kind:      model.EventOwnership,
		PoolID:    id.Hex(),
		Timestamp: h.engine.Now(),
		FloorTick: rec.Progress.CurrentFloorTick,
		Owner:     newOwner.Hex(),
	})
	h.logger.Info("ownership transferred", zap.String("pool", id.Hex()), zap.String("owner", newOwner.Hex()))
	return nil
}
