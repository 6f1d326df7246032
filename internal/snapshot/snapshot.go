// Package snapshot fuses a temporal state and the route navigator's current
// read-out into the flattened Snapshot the rule engine evaluates (spec
// §4.4).
package snapshot

import (
	"fmt"
	"math"

	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/navigator"
	"github.com/open-eyes/handheld/internal/state"
)

const (
	frontObstacleM        = 1.5
	sideObstacleM         = 0.8
	deviationDeg          = 15.0
	offCourseDeg          = 15.0
	stronglyOffCourseDeg  = 45.0
	nearWaypointM         = 15.0
	nearDestinationM      = 10.0
	obstacleHighM         = 1.5
	approachEnhanceGain   = 0.2
	approachEnhanceCapPct = 0.3
)

// GpsContext carries the route-navigator-derived fields the engine needs to
// reason about GPS-driven guidance. Every field is optional because a
// snapshot may be built with no active destination.
type GpsContext struct {
	TargetBearing            *float64
	HeadingDeviation         *float64
	DistanceToDestination    *float64
	DestinationName          string
	DistanceToNextWaypoint   *float64
	NextWaypointName         string
}

// Snapshot is the decision-ready view consumed by the rule engine.
type Snapshot struct {
	Front, Left, Right float64
	ObstacleHigh       bool
	WaterDetected      bool

	Yaw, Pitch, Roll float64
	TimestampMs      int64

	GPS GpsContext
}

// HasObstacleFront reports front < 1.5 m.
func (s Snapshot) HasObstacleFront() bool { return s.Front < frontObstacleM }

// HasObstacleLeft reports left < 0.8 m.
func (s Snapshot) HasObstacleLeft() bool { return s.Left < sideObstacleM }

// HasObstacleRight reports right < 0.8 m.
func (s Snapshot) HasObstacleRight() bool { return s.Right < sideObstacleM }

// IsDeviating reports |yaw| > 15 degrees.
func (s Snapshot) IsDeviating() bool { return math.Abs(s.Yaw) > deviationDeg }

// HasActiveDestination reports whether GPS route context is present.
func (s Snapshot) HasActiveDestination() bool { return s.GPS.DistanceToDestination != nil }

// IsOffCourse reports |heading_deviation| > 15 degrees.
func (s Snapshot) IsOffCourse() bool {
	return s.GPS.HeadingDeviation != nil && math.Abs(*s.GPS.HeadingDeviation) > offCourseDeg
}

// IsStronglyOffCourse reports |heading_deviation| > 45 degrees.
func (s Snapshot) IsStronglyOffCourse() bool {
	return s.GPS.HeadingDeviation != nil && math.Abs(*s.GPS.HeadingDeviation) > stronglyOffCourseDeg
}

// IsNearWaypoint reports distance_to_next_waypoint < 15 m.
func (s Snapshot) IsNearWaypoint() bool {
	return s.GPS.DistanceToNextWaypoint != nil && *s.GPS.DistanceToNextWaypoint < nearWaypointM
}

// IsNearDestination reports distance_to_destination < 10 m.
func (s Snapshot) IsNearDestination() bool {
	return s.GPS.DistanceToDestination != nil && *s.GPS.DistanceToDestination < nearDestinationM
}

func headingDeviation(heading, targetBearing float64) float64 {
	d := targetBearing - heading
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}

func withDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Build fuses ts (a state.TemporalState) and nav (may be nil, meaning no
// route context) into a Snapshot per the servo-angle mapping table in
// spec §4.4. It returns model.ErrInvalidState if ts is not fresh or its IMU
// carries NaN — the validation gate that decides whether a decision cycle
// runs at all.
func Build(ts *state.TemporalState, nav *navigator.RouteNavigator, nowMs int64) (Snapshot, error) {
	if ts == nil {
		return Snapshot{}, fmt.Errorf("%w: nil temporal state", model.ErrInvalidState)
	}
	p := ts.Packet
	if !p.Fresh(nowMs) {
		return Snapshot{}, fmt.Errorf("%w: packet is not fresh (age %dms)", model.ErrInvalidState, p.AgeMs(nowMs))
	}
	if p.IMU.HasNaN() {
		return Snapshot{}, fmt.Errorf("%w: IMU carries NaN", model.ErrInvalidState)
	}

	front, left, right := ObstacleMaxM, ObstacleMaxM, ObstacleMaxM
	lower := withDefault(p.Obstacles.Lower, ObstacleMaxM)
	upper := withDefault(p.Obstacles.Upper, ObstacleMaxM)

	switch p.Obstacles.LowerZone() {
	case model.ZoneCenter:
		front = lower
	case model.ZoneRight:
		right = lower
		front = upper
	case model.ZoneLeft:
		left = lower
		front = upper
	}

	if ts.IsApproachingObstacle {
		factor := 1 - math.Min(ts.ApproachSpeed*approachEnhanceGain, approachEnhanceCapPct)
		front *= factor
		left *= factor
		right *= factor
	}

	s := Snapshot{
		Front:         front,
		Left:          left,
		Right:         right,
		ObstacleHigh:  (p.Obstacles.Upper != nil && *p.Obstacles.Upper < obstacleHighM) || p.CriticalSensor == "upper",
		WaterDetected: p.Water.Danger() || p.Water.Submerged(),
		Yaw:           p.IMU.Yaw,
		Pitch:         p.IMU.Pitch,
		Roll:          p.IMU.Roll,
		TimestampMs:   p.TimestampMs,
	}

	if nav != nil && nav.HasActiveDestination() {
		if bearing, ok := nav.TargetBearing(); ok {
			s.GPS.TargetBearing = &bearing
			dev := headingDeviation(p.IMU.Yaw, bearing)
			s.GPS.HeadingDeviation = &dev
		}
		if d, ok := nav.DistanceToDestination(); ok {
			s.GPS.DistanceToDestination = &d
		}
		if name, ok := nav.DestinationName(); ok {
			s.GPS.DestinationName = name
		}
		if d, ok := nav.DistanceToCurrentWaypoint(); ok {
			s.GPS.DistanceToNextWaypoint = &d
		}
		if wp, ok := nav.CurrentWaypoint(); ok {
			s.GPS.NextWaypointName = wp.Name
		}
	}

	return s, nil
}

// ObstacleMaxM mirrors model.ObstacleMaxM: the safe default distance for a
// direction the servo is not currently sweeping.
const ObstacleMaxM = model.ObstacleMaxM
