package hook

import (
	"math/big"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

// Plan describes what a sync at a given time and price would do.
type Plan struct {
	Epoch        uint64   `json:"epoch"`
	Due          bool     `json:"due"`
	Branch       string   `json:"branch,omitempty"`
	TargetAmount *big.Int `json:"target_amount,omitempty"`
	Delta        *big.Int `json:"delta,omitempty"`
	TargetFloor  int32    `json:"target_floor"`
}

// PlanSync computes the reconciliation due at now for a pool whose price is
// sqrtPriceX96. The target floor is aligned to spacing toward the wide side.
func PlanSync(s model.Schedule, p model.Progress, spacing int32, sqrtPriceX96 *big.Int, now uint64) (Plan, error) {
	plan := Plan{
		Epoch:       release.EpochFloor(now, p.EpochSize),
		TargetFloor: p.CurrentFloorTick,
	}
	if !release.ShouldReconcile(p, now) {
		return plan, nil
	}
	target, err := release.TargetReleasedAmount(s, now)
	if err != nil {
		return plan, err
	}
	floor, err := release.TargetFloorTick(s, now)
	if err != nil {
		return plan, err
	}
	floor = release.AlignFloor(floor, spacing, s.IsReleaseTokenFirst)
	floorPrice, err := liquidity.SqrtPriceAtTick(floor)
	if err != nil {
		return plan, err
	}

	released := p.AmountReleased
	if released == nil {
		released = big.NewInt(0)
	}
	delta := new(big.Int).Sub(target, released)
	if delta.Sign() < 0 {
		delta.SetInt64(0)
	}

	plan.Due = true
	plan.TargetAmount = target
	plan.Delta = delta
	plan.TargetFloor = floor
	plan.Branch = model.BranchSellThenExtend
	if atOrBelowFloor(sqrtPriceX96, floorPrice, s.IsReleaseTokenFirst) {
		plan.Branch = model.BranchExtend
	}
	return plan, nil
}

// atOrBelowFloor reports whether the release token is priced at or under
// the floor, so a position opened there holds only the release token.
func atOrBelowFloor(sqrtPriceX96, floorPrice *big.Int, releaseFirst bool) bool {
	if releaseFirst {
		return sqrtPriceX96.Cmp(floorPrice) <= 0
	}
	return sqrtPriceX96.Cmp(floorPrice) >= 0
}
