// Package release derives the intended release progress of a schedule as a
// pure function of time, and buckets time into reconciliation epochs.
package release

import (
	"errors"
	"math/big"

	"liquidityLaunch/internal/model"
)

// ErrBeforeStartTime is returned when a curve is queried before the window opens.
var ErrBeforeStartTime = errors.New("before start time")

// TargetFloorTick returns the intended floor boundary (pool tick space) at t.
//
// The floor moves linearly from the wide boundary at StartTime to the narrow
// boundary at EndTime. The interpolation multiplies before dividing and
// truncates, so intermediate values are biased toward the wide boundary and
// never overshoot the narrow one.
func TargetFloorTick(s model.Schedule, t uint64) (int32, error) {
	if t < s.StartTime {
		return 0, ErrBeforeStartTime
	}
	wide, narrow := Boundaries(s)
	if t >= s.EndTime {
		return Absolute(narrow, s.IsReleaseTokenFirst), nil
	}

	elapsed := new(big.Int).SetUint64(t - s.StartTime)
	total := new(big.Int).SetUint64(s.Duration())
	numerator := elapsed.Mul(elapsed, big.NewInt(int64(wide)-int64(narrow)))
	step := numerator.Quo(numerator, total).Int64()

	return Absolute(int32(int64(wide)-step), s.IsReleaseTokenFirst), nil
}

// TargetReleasedAmount returns the cumulative amount that should be in the
// market at t. It is zero at StartTime, TotalAmount from EndTime on, and
// non-decreasing in between.
func TargetReleasedAmount(s model.Schedule, t uint64) (*big.Int, error) {
	if t < s.StartTime {
		return nil, ErrBeforeStartTime
	}
	total := s.TotalAmount
	if total == nil {
		total = big.NewInt(0)
	}
	if t >= s.EndTime {
		return new(big.Int).Set(total), nil
	}

	elapsed := new(big.Int).SetUint64(t - s.StartTime)
	amount := elapsed.Mul(elapsed, total)
	return amount.Quo(amount, new(big.Int).SetUint64(s.Duration())), nil
}
