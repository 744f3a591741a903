package model

import "math/big"

// BalanceDelta is the net currency movement of an operation from the caller's side.
// Negative amounts are owed to the pool, positive amounts are owed to the caller.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// ZeroDelta returns a delta with both amounts set to zero.
func ZeroDelta() BalanceDelta {
	return BalanceDelta{Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
}

// Amount returns the delta of currency0 when first is true, currency1 otherwise.
func (d BalanceDelta) Amount(first bool) *big.Int {
	var v *big.Int
	if first {
		v = d.Amount0
	} else {
		v = d.Amount1
	}
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// ModifyLiquidityParams adds (positive) or removes (negative) liquidity at a tick range.
type ModifyLiquidityParams struct {
	TickLower      int32
	TickUpper      int32
	LiquidityDelta *big.Int
}

// SwapParams is an exact-input trade bounded by a sqrt price limit.
type SwapParams struct {
	ZeroForOne        bool
	AmountIn          *big.Int
	SqrtPriceLimitX96 *big.Int
}
