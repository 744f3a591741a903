package release

import "liquidityLaunch/internal/model"

// Release space is the pool tick space seen from the release token: lower
// ticks are always cheaper for it. When the release token is currency0 the
// two spaces coincide, otherwise ticks are negated.

// Relative maps a pool tick into release space.
func Relative(tick int32, releaseFirst bool) int32 {
	if releaseFirst {
		return tick
	}
	return -tick
}

// Absolute maps a release-space tick back into pool space.
func Absolute(tick int32, releaseFirst bool) int32 {
	return Relative(tick, releaseFirst)
}

// Boundaries returns the wide (starting) and narrow (final) floor in release space.
func Boundaries(s model.Schedule) (wide, narrow int32) {
	if s.IsReleaseTokenFirst {
		return s.MaxTick, s.MinTick
	}
	return -s.MinTick, -s.MaxTick
}

// WideTick returns the starting floor boundary in pool space.
func WideTick(s model.Schedule) int32 {
	wide, _ := Boundaries(s)
	return Absolute(wide, s.IsReleaseTokenFirst)
}

// NarrowTick returns the final floor boundary in pool space.
func NarrowTick(s model.Schedule) int32 {
	_, narrow := Boundaries(s)
	return Absolute(narrow, s.IsReleaseTokenFirst)
}

// PositionRange returns the pool-space tick range of a release position
// whose floor sits at floorTick. The range always extends to the wide boundary.
func PositionRange(s model.Schedule, floorTick int32) (lower, upper int32) {
	if s.IsReleaseTokenFirst {
		return floorTick, s.MaxTick
	}
	return s.MinTick, floorTick
}

// AlignFloor rounds a pool-space floor tick to a multiple of spacing, toward
// the wide boundary.
func AlignFloor(tick int32, spacing int32, releaseFirst bool) int32 {
	if spacing <= 1 {
		return tick
	}
	rel := Relative(tick, releaseFirst)
	rem := rel % spacing
	if rem != 0 {
		if rel > 0 {
			rel += spacing - rem
		} else {
			rel -= rem
		}
	}
	return Absolute(rel, releaseFirst)
}
