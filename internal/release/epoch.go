package release

import "liquidityLaunch/internal/model"

// EpochFloor truncates ts to the start of its epoch.
func EpochFloor(ts, epochSize uint64) uint64 {
	if epochSize == 0 {
		return ts
	}
	return (ts / epochSize) * epochSize
}

// ShouldReconcile reports whether the epoch containing ts still needs work.
func ShouldReconcile(p model.Progress, ts uint64) bool {
	if p.ReconciliationDisabled {
		return false
	}
	return !p.IsReconciled(EpochFloor(ts, p.EpochSize))
}
