// Package state derives the temporal snapshot of cane orientation and
// obstacle motion from a filtered packet plus the previous cycle's state
// (spec §4.2).
package state

// AngleDelta returns the shortest-path signed difference from a to b,
// normalized to (-180,180]. Used for yaw/pitch/roll deltas so a wrap from
// 179 to -179 reads as a 2-degree turn, not a 358-degree one.
func AngleDelta(a, b float64) float64 {
	d := b - a
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}
