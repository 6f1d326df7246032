package guidance

import "math"

const (
	avgWalkingSpeedMPS  = 1.4
	pitchAttenuationDeg = 10.0
	pitchAttenuation    = 0.8
	yawCosThresholdDeg  = 15.0
)

// startSnapshot is the minimal state the displacement tracker needs from
// the moment guidance begins: the orientation at the start of the
// movement. Elapsed time is measured by the executor and passed to Tick.
type startSnapshot struct {
	yaw float64
}

// currentSnapshot is the minimal state needed on each tick to update the
// estimate.
type currentSnapshot struct {
	yaw, pitch float64
}

// displacementTracker accumulates an estimated walked distance toward a
// target, per spec §4.7. It is not safe for concurrent use; the guidance
// executor owns it exclusively.
type displacementTracker struct {
	active   bool
	start    startSnapshot
	target   float64
	traveled float64
}

func newDisplacementTracker() *displacementTracker {
	return &displacementTracker{}
}

// Begin starts tracking toward targetM meters from the given start
// orientation.
func (t *displacementTracker) Begin(startYaw float64, targetM float64) {
	t.active = true
	t.start = startSnapshot{yaw: startYaw}
	t.target = targetM
	t.traveled = 0
}

// Active reports whether a movement target is currently being tracked.
func (t *displacementTracker) Active() bool { return t.active }

// Traveled returns the distance accumulated so far.
func (t *displacementTracker) Traveled() float64 { return t.traveled }

// Reset clears tracking state.
func (t *displacementTracker) Reset() {
	t.active = false
	t.traveled = 0
}

// estimateStep computes one tick's incremental distance from elapsed time
// and the current orientation, per spec §4.7's formula: avg_walking_speed *
// dt * attenuation * cos(|yaw-start.yaw|) when the yaw delta exceeds 15deg.
func estimateStep(dtSeconds float64, cur currentSnapshot, start startSnapshot) float64 {
	if dtSeconds <= 0 {
		return 0
	}
	dist := avgWalkingSpeedMPS * dtSeconds

	if math.Abs(cur.pitch) > pitchAttenuationDeg {
		dist *= pitchAttenuation
	}

	yawDelta := angleDiff(start.yaw, cur.yaw)
	if math.Abs(yawDelta) > yawCosThresholdDeg {
		dist *= math.Cos(yawDelta * math.Pi / 180)
	}
	if dist < 0 {
		dist = 0
	}
	return dist
}

func angleDiff(a, b float64) float64 {
	d := b - a
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}

// Tick advances the tracker by dtSeconds using the current orientation,
// and returns whether the target has now been reached (monotonically
// non-decreasing traveled distance, testable property #8).
func (t *displacementTracker) Tick(dtSeconds float64, cur currentSnapshot) bool {
	if !t.active {
		return false
	}
	t.traveled += estimateStep(dtSeconds, cur, t.start)
	return t.traveled >= t.target
}

// AddExternalDistance accepts an externally supplied distance delta, e.g.
// from a future odometry source, per spec §4.7.
func (t *displacementTracker) AddExternalDistance(deltaM float64) bool {
	if !t.active || deltaM < 0 {
		return false
	}
	t.traveled += deltaM
	return t.traveled >= t.target
}
