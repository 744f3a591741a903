// Package liquidity converts between release-token amounts and
// concentrated-liquidity units over a tick range.
package liquidity

import (
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"
)

// Q96 is 2^96, the fixed-point scale of sqrt prices.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Tick bounds of the host engine, matching the sqrt price table.
const (
	MinTick int32 = -887272
	MaxTick int32 = -MinTick
)

// SqrtPriceAtTick returns sqrt(1.0001^tick) as a Q64.96 value.
func SqrtPriceAtTick(tick int32) (*big.Int, error) {
	sqrt, err := utils.GetSqrtRatioAtTick(int(tick))
	if err != nil {
		return nil, fmt.Errorf("sqrt price at tick %d: %w", tick, err)
	}
	return sqrt, nil
}

// TickAtSqrtPrice returns the greatest tick whose sqrt price is <= sqrtPriceX96.
func TickAtSqrtPrice(sqrtPriceX96 *big.Int) (int32, error) {
	tick, err := utils.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return 0, fmt.Errorf("tick at sqrt price %s: %w", sqrtPriceX96, err)
	}
	return int32(tick), nil
}

// UsableTickBounds returns the extreme ticks that are multiples of spacing.
func UsableTickBounds(spacing int32) (int32, int32) {
	if spacing <= 0 {
		spacing = 1
	}
	return (MinTick / spacing) * spacing, (MaxTick / spacing) * spacing
}

// ForAmount returns the liquidity that amount of the release token buys over
// [lower, upper], rounded down. The release token is currency0 when
// releaseFirst is set and currency1 otherwise.
func ForAmount(lower, upper int32, amount *big.Int, releaseFirst bool) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 || lower >= upper {
		return big.NewInt(0), nil
	}
	sqrtA, sqrtB, err := rangeSqrtPrices(lower, upper)
	if err != nil {
		return nil, err
	}
	width := new(big.Int).Sub(sqrtB, sqrtA)

	if releaseFirst {
		// L = amount0 * (sqrtA * sqrtB / Q96) / (sqrtB - sqrtA)
		intermediate := new(big.Int).Mul(sqrtA, sqrtB)
		intermediate.Quo(intermediate, Q96)
		liquidity := new(big.Int).Mul(amount, intermediate)
		return liquidity.Quo(liquidity, width), nil
	}

	// L = amount1 * Q96 / (sqrtB - sqrtA)
	liquidity := new(big.Int).Mul(amount, Q96)
	return liquidity.Quo(liquidity, width), nil
}

// ToAmount returns the release-token amount held by liquidity over
// [lower, upper] when the price sits on the release token's side of the
// range, rounded down.
func ToAmount(lower, upper int32, liquidity *big.Int, releaseFirst bool) (*big.Int, error) {
	if liquidity == nil || liquidity.Sign() <= 0 || lower >= upper {
		return big.NewInt(0), nil
	}
	sqrtA, sqrtB, err := rangeSqrtPrices(lower, upper)
	if err != nil {
		return nil, err
	}
	if releaseFirst {
		return utils.GetAmount0Delta(sqrtA, sqrtB, liquidity, false), nil
	}
	return utils.GetAmount1Delta(sqrtA, sqrtB, liquidity, false), nil
}

func rangeSqrtPrices(lower, upper int32) (*big.Int, *big.Int, error) {
	sqrtA, err := SqrtPriceAtTick(lower)
	if err != nil {
		return nil, nil, err
	}
	sqrtB, err := SqrtPriceAtTick(upper)
	if err != nil {
		return nil, nil, err
	}
	return sqrtA, sqrtB, nil
}
