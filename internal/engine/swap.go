package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
)

var (
	minSqrtPrice = mustSqrtPrice(liquidity.MinTick)
	maxSqrtPrice = mustSqrtPrice(liquidity.MaxTick)
)

func mustSqrtPrice(tick int32) *big.Int {
	sqrt, err := liquidity.SqrtPriceAtTick(tick)
	if err != nil {
		panic(err)
	}
	return sqrt
}

// DefaultPriceLimit returns the farthest usable limit for the swap direction.
func DefaultPriceLimit(zeroForOne bool) *big.Int {
	if zeroForOne {
		return new(big.Int).Add(minSqrtPrice, big.NewInt(1))
	}
	return new(big.Int).Sub(maxSqrtPrice, big.NewInt(1))
}

// Swap performs an exact-input swap until the input is spent or the price
// reaches the limit. The BeforeSwap hook runs first and may modify the pool.
// A limit at or behind the current price is a no-op.
func (e *Engine) Swap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (model.BalanceDelta, error) {
	if !e.unlocked {
		return model.ZeroDelta(), ErrLocked
	}
	id := key.ID()
	if _, ok := e.pools[id]; !ok {
		return model.ZeroDelta(), fmt.Errorf("%w: %s", ErrPoolNotInitialized, id.Hex())
	}
	if params.AmountIn == nil || params.AmountIn.Sign() < 0 {
		return model.ZeroDelta(), fmt.Errorf("%w: swap input %v", ErrInvalidAmount, params.AmountIn)
	}

	if key.Hooks != (common.Address{}) {
		if h, ok := e.hooks[key.Hooks]; ok {
			if err := h.BeforeSwap(ctx, sender, key, params); err != nil {
				return model.ZeroDelta(), fmt.Errorf("before swap hook: %w", err)
			}
		}
	}

	p := e.pools[id]
	limit := params.SqrtPriceLimitX96
	if limit == nil {
		limit = DefaultPriceLimit(params.ZeroForOne)
	}
	if limit.Cmp(minSqrtPrice) <= 0 || limit.Cmp(maxSqrtPrice) >= 0 {
		return model.ZeroDelta(), fmt.Errorf("%w: %s", ErrInvalidPriceLimit, limit)
	}
	if params.AmountIn.Sign() == 0 {
		return model.ZeroDelta(), nil
	}
	if params.ZeroForOne && limit.Cmp(p.sqrtPriceX96) >= 0 {
		return model.ZeroDelta(), nil
	}
	if !params.ZeroForOne && limit.Cmp(p.sqrtPriceX96) <= 0 {
		return model.ZeroDelta(), nil
	}

	spent, received, err := p.swap(params.ZeroForOne, params.AmountIn, limit)
	if err != nil {
		return model.ZeroDelta(), err
	}

	var delta model.BalanceDelta
	if params.ZeroForOne {
		delta = model.BalanceDelta{Amount0: new(big.Int).Neg(spent), Amount1: received}
	} else {
		delta = model.BalanceDelta{Amount0: received, Amount1: new(big.Int).Neg(spent)}
	}
	e.accountDelta(sender, key, delta)

	e.logger.Debug("swap",
		zap.String("pool", id.Hex()),
		zap.Bool("zero_for_one", params.ZeroForOne),
		zap.String("amount_in", spent.String()),
		zap.String("amount_out", received.String()),
		zap.Int32("tick", p.tick),
	)
	return delta, nil
}

// swap steps through initialized ticks and returns the input consumed,
// fees included, and the output produced.
func (p *pool) swap(zeroForOne bool, amountIn, limit *big.Int) (*big.Int, *big.Int, error) {
	remaining := new(big.Int).Set(amountIn)
	spent := big.NewInt(0)
	received := big.NewInt(0)
	sqrtPrice := p.sqrtPriceX96
	tick := p.tick
	active := p.liquidity
	fee := constants.FeeAmount(p.key.Fee)

	for remaining.Sign() > 0 && sqrtPrice.Cmp(limit) != 0 {
		sqrtStart := sqrtPrice
		tickNext, initialized := p.nextInitializedTick(tick, zeroForOne)
		sqrtNext, err := liquidity.SqrtPriceAtTick(tickNext)
		if err != nil {
			return nil, nil, err
		}

		target := sqrtNext
		if zeroForOne && sqrtNext.Cmp(limit) < 0 || !zeroForOne && sqrtNext.Cmp(limit) > 0 {
			target = limit
		}

		next, in, out, feeAmount, err := utils.ComputeSwapStep(sqrtPrice, target, active, remaining, fee)
		if err != nil {
			return nil, nil, fmt.Errorf("swap step: %w", err)
		}
		sqrtPrice = next
		consumed := new(big.Int).Add(in, feeAmount)
		remaining = new(big.Int).Sub(remaining, consumed)
		spent = new(big.Int).Add(spent, consumed)
		received = new(big.Int).Add(received, out)

		if sqrtPrice.Cmp(sqrtNext) == 0 {
			if initialized {
				net := p.ticks[tickNext].net
				if zeroForOne {
					net = new(big.Int).Neg(net)
				}
				active = new(big.Int).Add(active, net)
			}
			if zeroForOne {
				tick = tickNext - 1
			} else {
				tick = tickNext
			}
		} else if sqrtPrice.Cmp(sqrtStart) != 0 {
			tick, err = liquidity.TickAtSqrtPrice(sqrtPrice)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	p.sqrtPriceX96 = sqrtPrice
	p.tick = tick
	p.liquidity = active
	return spent, received, nil
}
