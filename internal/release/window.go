package release

import (
	"errors"
	"math"
)

// EpochRange is the part of one epoch that falls inside a window. Both
// bounds are inclusive; Epoch is the epoch start and may precede Start.
type EpochRange struct {
	Epoch uint64 `json:"epoch"`
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// SplitWindow cuts the inclusive window [from, to] at epoch boundaries.
func SplitWindow(from, to, epochSize uint64) ([]EpochRange, error) {
	if epochSize == 0 {
		return nil, errors.New("epoch size must be greater than zero")
	}
	if to < from {
		return nil, errors.New("window end must be >= window start")
	}

	var out []EpochRange
	for epoch := EpochFloor(from, epochSize); ; epoch += epochSize {
		r := EpochRange{Epoch: epoch, Start: max(epoch, from), End: to}
		if last := epoch + epochSize - 1; last < to && epoch <= math.MaxUint64-epochSize {
			r.End = last
		}
		out = append(out, r)
		if r.End == to {
			return out, nil
		}
	}
}
