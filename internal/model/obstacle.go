package model

import "math"

// Obstacle sensing thresholds, in meters, shared by ObstaclePair scoring and
// by the snapshot/rules layers.
const (
	UpperDangerM  = 0.6
	LowerDangerM  = 0.4
	ObstacleWarnM = 1.0
	ObstacleClearM = 2.5
	ObstacleMaxM   = 10.0
)

// Zone names an obstacle direction relative to the cane's forward axis.
type Zone int

const (
	ZoneCenter Zone = iota
	ZoneLeft
	ZoneRight
)

func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "center"
	}
}

// ObstaclePair is one reading from the two ultrasonic rangefinders: a fixed
// head-height "upper" sensor and a servo-swept ground-scanning "lower"
// sensor. Distances are nil when the sensor reports no echo within range.
type ObstaclePair struct {
	Upper      *float64 `json:"upper"`
	Lower      *float64 `json:"lower"`
	ServoAngle float64  `json:"servoAngle"`
}

// Valid reports whether present distances lie in (0,10] and the servo angle
// lies in [-90,90].
func (o ObstaclePair) Valid() bool {
	if o.ServoAngle < -90 || o.ServoAngle > 90 {
		return false
	}
	if o.Upper != nil && (*o.Upper <= 0 || *o.Upper > ObstacleMaxM) {
		return false
	}
	if o.Lower != nil && (*o.Lower <= 0 || *o.Lower > ObstacleMaxM) {
		return false
	}
	return true
}

// LowerZone classifies the servo-swept lower sensor's current sweep
// direction: center when |angle|<=30, left when <-30, right when >30.
func (o ObstaclePair) LowerZone() Zone {
	switch {
	case o.ServoAngle < -30:
		return ZoneLeft
	case o.ServoAngle > 30:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

// proximityScore maps a distance to a [0,1] danger contribution: 1 at or
// inside dangerM, 0 at or beyond clearM, linear in between. A nil distance
// contributes 0 (nothing detected there).
func proximityScore(dist *float64, dangerM, clearM float64) float64 {
	if dist == nil {
		return 0
	}
	d := *dist
	if d <= dangerM {
		return 1
	}
	if d >= clearM {
		return 0
	}
	return (clearM - d) / (clearM - dangerM)
}

// DangerScore blends the upper and lower sensor readings into a single
// [0,1] score: upper weighted 1.5x, lower 1.0x, plus a 0.3 bump when the
// lower sensor is currently sweeping forward (center zone) and reads under
// 1 meter.
func (o ObstaclePair) DangerScore() float64 {
	upperScore := proximityScore(o.Upper, UpperDangerM, ObstacleClearM)
	lowerScore := proximityScore(o.Lower, LowerDangerM, ObstacleClearM)

	const upperWeight, lowerWeight = 1.5, 1.0
	blended := (upperScore*upperWeight + lowerScore*lowerWeight) / (upperWeight + lowerWeight)

	if o.LowerZone() == ZoneCenter && o.Lower != nil && *o.Lower < 1.0 {
		blended += 0.3
	}
	return math.Min(1, math.Max(0, blended))
}
