package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/ethereum/go-ethereum/common"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
)

// ModifyLiquidity adds or removes owner's liquidity over a tick range. The
// returned delta is negative for amounts owed to the engine.
func (e *Engine) ModifyLiquidity(ctx context.Context, owner common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (model.BalanceDelta, error) {
	if !e.unlocked {
		return model.ZeroDelta(), ErrLocked
	}
	id := key.ID()
	p, ok := e.pools[id]
	if !ok {
		return model.ZeroDelta(), fmt.Errorf("%w: %s", ErrPoolNotInitialized, id.Hex())
	}
	if err := checkTicks(params.TickLower, params.TickUpper, key.TickSpacing); err != nil {
		return model.ZeroDelta(), err
	}
	liq := params.LiquidityDelta
	if liq == nil || liq.Sign() == 0 {
		return model.ZeroDelta(), nil
	}

	pk := positionKey{pool: id, owner: owner, lower: params.TickLower, upper: params.TickUpper}
	current, ok := e.positions[pk]
	if !ok {
		current = big.NewInt(0)
	}
	next := new(big.Int).Add(current, liq)
	if next.Sign() < 0 {
		return model.ZeroDelta(), fmt.Errorf("%w: position holds %s, removing %s", ErrInsufficientLiquidity, current, new(big.Int).Neg(liq))
	}

	delta, err := rangeAmounts(p.sqrtPriceX96, params.TickLower, params.TickUpper, liq)
	if err != nil {
		return model.ZeroDelta(), err
	}

	p.updateTick(params.TickLower, liq, false)
	p.updateTick(params.TickUpper, liq, true)
	if p.tick >= params.TickLower && p.tick < params.TickUpper {
		p.liquidity = new(big.Int).Add(p.liquidity, liq)
	}
	if next.Sign() == 0 {
		delete(e.positions, pk)
	} else {
		e.positions[pk] = next
	}
	e.accountDelta(owner, key, delta)
	return delta, nil
}

// rangeAmounts prices a liquidity change at the current sqrt price. Adds
// round up, removals round down.
func rangeAmounts(sqrtPriceX96 *big.Int, lower, upper int32, liq *big.Int) (model.BalanceDelta, error) {
	sqrtA, err := liquidity.SqrtPriceAtTick(lower)
	if err != nil {
		return model.BalanceDelta{}, err
	}
	sqrtB, err := liquidity.SqrtPriceAtTick(upper)
	if err != nil {
		return model.BalanceDelta{}, err
	}

	adding := liq.Sign() > 0
	abs := new(big.Int).Abs(liq)
	amount0, amount1 := big.NewInt(0), big.NewInt(0)
	switch {
	case sqrtPriceX96.Cmp(sqrtA) <= 0:
		amount0 = utils.GetAmount0Delta(sqrtA, sqrtB, abs, adding)
	case sqrtPriceX96.Cmp(sqrtB) < 0:
		amount0 = utils.GetAmount0Delta(sqrtPriceX96, sqrtB, abs, adding)
		amount1 = utils.GetAmount1Delta(sqrtA, sqrtPriceX96, abs, adding)
	default:
		amount1 = utils.GetAmount1Delta(sqrtA, sqrtB, abs, adding)
	}
	if adding {
		return model.BalanceDelta{Amount0: amount0.Neg(amount0), Amount1: amount1.Neg(amount1)}, nil
	}
	return model.BalanceDelta{Amount0: amount0, Amount1: amount1}, nil
}

func checkTicks(lower, upper, spacing int32) error {
	if lower >= upper {
		return fmt.Errorf("%w: lower %d >= upper %d", ErrInvalidTickRange, lower, upper)
	}
	if lower < liquidity.MinTick || upper > liquidity.MaxTick {
		return fmt.Errorf("%w: [%d, %d] outside tick bounds", ErrInvalidTickRange, lower, upper)
	}
	if lower%spacing != 0 || upper%spacing != 0 {
		return fmt.Errorf("%w: [%d, %d] not aligned to spacing %d", ErrInvalidTickRange, lower, upper, spacing)
	}
	return nil
}
