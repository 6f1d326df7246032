package rules

import (
	"fmt"
	"math"

	"github.com/open-eyes/handheld/internal/snapshot"
)

const (
	immediateFrontM = 1.0
	mediumFrontM    = 2.0
	freeSideM       = 1.5
	freeGpsSideM    = 2.0
	minGuidanceM    = 0.5
	maxGuidanceM    = 1.5

	// strongDriftDeg is where GpsNavigation's wording escalates to "drift
	// strongly" (spec §8 S8: heading_deviation=40 already reads as
	// strongly off course), lower than Snapshot's own
	// is_strongly_off_course predicate (45 deg), which stays a separate,
	// spec-literal threshold.
	strongDriftDeg = 40.0
)

// DefaultRuleSet returns the priority-ordered rule set from spec §4.5,
// ready to hand to NewEngine. Rules with one-shot latch state
// (DestinationReached, WaypointReached) are freshly allocated per call so
// concurrent engines never share latches.
func DefaultRuleSet() []Rule {
	return []Rule{
		&highObstacleRule{},
		newDestinationReachedRule(),
		&waterRule{},
		&immediateObstacleFrontRule{},
		&obstacleOnGpsRouteRule{},
		&mediumObstacleFrontRule{},
		&gpsLostRule{},
		&trajectoryDeviationRule{},
		&lateralObstacleRule{},
		newWaypointReachedRule(),
		&gpsNavigationRule{},
		&clearPathRule{},
	}
}

// --- HighObstacle (100) ---

type highObstacleRule struct{}

func (highObstacleRule) Name() string     { return "HighObstacle" }
func (highObstacleRule) Priority() int    { return 100 }
func (highObstacleRule) Matches(s snapshot.Snapshot) bool {
	return s.ObstacleHigh
}
func (highObstacleRule) Apply(snapshot.Snapshot) Instruction {
	return NewInstruction(Warning, "head-height obstacle, attention").WithImmediate()
}

// --- DestinationReached (95), one-shot ---

type destinationReachedRule struct {
	latched bool
}

func newDestinationReachedRule() *destinationReachedRule { return &destinationReachedRule{} }

func (destinationReachedRule) Name() string  { return "DestinationReached" }
func (destinationReachedRule) Priority() int { return 95 }

func (r *destinationReachedRule) Matches(s snapshot.Snapshot) bool {
	near := s.IsNearDestination()
	if !near {
		r.latched = false
		return false
	}
	if r.latched {
		return false
	}
	return true
}

func (r *destinationReachedRule) Apply(s snapshot.Snapshot) Instruction {
	r.latched = true
	msg := "you have arrived"
	if s.GPS.DestinationName != "" {
		msg = fmt.Sprintf("you have arrived at %s", s.GPS.DestinationName)
	}
	return NewInstruction(Guidance, msg).WithFollowUp(FollowUpAction{Kind: Stop})
}

// --- Water (90) ---

type waterRule struct{}

func (waterRule) Name() string  { return "Water" }
func (waterRule) Priority() int { return 90 }
func (waterRule) Matches(s snapshot.Snapshot) bool {
	return s.WaterDetected
}
func (waterRule) Apply(snapshot.Snapshot) Instruction {
	return NewInstruction(Warning, "water on ground, advance slowly")
}

// --- ImmediateObstacleFront (80) ---

type immediateObstacleFrontRule struct{}

func (immediateObstacleFrontRule) Name() string  { return "ImmediateObstacleFront" }
func (immediateObstacleFrontRule) Priority() int { return 80 }
func (immediateObstacleFrontRule) Matches(s snapshot.Snapshot) bool {
	return s.Front < immediateFrontM
}
func (immediateObstacleFrontRule) Apply(s snapshot.Snapshot) Instruction {
	side, ok := chooseSide(s.Left, s.Right, freeSideM, nil)
	if !ok {
		return NewInstruction(Warning, "obstacle ahead, stop").WithImmediate()
	}
	return NewInstruction(Guidance, fmt.Sprintf("obstacle ahead, turn %s now", side.name)).
		WithImmediate().
		WithFollowUp(FollowUpAction{Kind: side.followUp})
}

// --- ObstacleOnGpsRoute (75) ---

type obstacleOnGpsRouteRule struct{}

func (obstacleOnGpsRouteRule) Name() string  { return "ObstacleOnGpsRoute" }
func (obstacleOnGpsRouteRule) Priority() int { return 75 }
func (obstacleOnGpsRouteRule) Matches(s snapshot.Snapshot) bool {
	if !s.HasObstacleFront() || !s.HasActiveDestination() {
		return false
	}
	return s.GPS.HeadingDeviation != nil && math.Abs(*s.GPS.HeadingDeviation) <= 30
}
func (obstacleOnGpsRouteRule) Apply(s snapshot.Snapshot) Instruction {
	var gpsSign *float64
	if s.GPS.HeadingDeviation != nil {
		v := -*s.GPS.HeadingDeviation
		gpsSign = &v
	}
	side, ok := chooseSide(s.Left, s.Right, freeGpsSideM, gpsSign)
	if !ok {
		return NewInstruction(Warning, "route blocked, stop")
	}
	return NewInstruction(Guidance, fmt.Sprintf("obstacle on route, detour %s", side.name)).
		WithFollowUp(FollowUpAction{Kind: side.followUp})
}

// --- MediumObstacleFront (70) ---

type mediumObstacleFrontRule struct{}

func (mediumObstacleFrontRule) Name() string  { return "MediumObstacleFront" }
func (mediumObstacleFrontRule) Priority() int { return 70 }
func (mediumObstacleFrontRule) Matches(s snapshot.Snapshot) bool {
	return s.Front >= immediateFrontM && s.Front < mediumFrontM
}
func (mediumObstacleFrontRule) Apply(s snapshot.Snapshot) Instruction {
	distance := clamp(s.Front-0.5, minGuidanceM, maxGuidanceM)
	side, ok := chooseSide(s.Left, s.Right, freeSideM, nil)
	instr := NewInstruction(Guidance, "obstacle ahead, prepare to turn").WithDistance(distance)
	if ok {
		instr = instr.WithFollowUp(FollowUpAction{Kind: side.followUp})
	}
	return instr
}

// --- GpsLostDuringNavigation (65) ---

type gpsLostRule struct {
	engine *Engine
}

func (gpsLostRule) Name() string  { return "GpsLostDuringNavigation" }
func (gpsLostRule) Priority() int { return 65 }
func (r *gpsLostRule) Matches(snapshot.Snapshot) bool {
	return r.engine != nil && r.engine.GpsLost()
}
func (gpsLostRule) Apply(snapshot.Snapshot) Instruction {
	return NewInstruction(Warning, "GPS lost, navigation suspended")
}

// bindEngine lets NewEngine wire the gpsLostRule to its own flag without
// exposing engine internals to the rest of the rules package's callers.
func bindEngine(rs []Rule, e *Engine) {
	for _, r := range rs {
		if g, ok := r.(*gpsLostRule); ok {
			g.engine = e
		}
	}
}

// --- TrajectoryDeviation (60) ---

type trajectoryDeviationRule struct{}

func (trajectoryDeviationRule) Name() string  { return "TrajectoryDeviation" }
func (trajectoryDeviationRule) Priority() int { return 60 }
func (trajectoryDeviationRule) Matches(s snapshot.Snapshot) bool {
	return s.IsDeviating()
}
func (trajectoryDeviationRule) Apply(s snapshot.Snapshot) Instruction {
	if math.Abs(s.Yaw) > 30 {
		return NewInstruction(Correction, "go back one step then turn the opposite way").WithDistance(1.0)
	}
	dir := "left"
	if s.Yaw < 0 {
		dir = "right"
	}
	return NewInstruction(Correction, fmt.Sprintf("straighten up, turn slightly %s", dir))
}

// --- LateralObstacle (50) ---

type lateralObstacleRule struct{}

func (lateralObstacleRule) Name() string  { return "LateralObstacle" }
func (lateralObstacleRule) Priority() int { return 50 }
func (lateralObstacleRule) Matches(s snapshot.Snapshot) bool {
	return s.HasObstacleLeft() || s.HasObstacleRight()
}
func (lateralObstacleRule) Apply(s snapshot.Snapshot) Instruction {
	if s.HasObstacleLeft() && s.HasObstacleRight() {
		return NewInstruction(Warning, "narrow passage, advance carefully")
	}
	if s.HasObstacleLeft() {
		return NewInstruction(Warning, "obstacle on the left")
	}
	return NewInstruction(Warning, "obstacle on the right")
}

// --- WaypointReached (40), one-shot ---

type waypointReachedRule struct {
	latched bool
}

func newWaypointReachedRule() *waypointReachedRule { return &waypointReachedRule{} }

func (waypointReachedRule) Name() string  { return "WaypointReached" }
func (waypointReachedRule) Priority() int { return 40 }

func (r *waypointReachedRule) Matches(s snapshot.Snapshot) bool {
	near := s.IsNearWaypoint() && !s.IsNearDestination()
	if !near {
		r.latched = false
		return false
	}
	if r.latched {
		return false
	}
	return true
}

func (r *waypointReachedRule) Apply(s snapshot.Snapshot) Instruction {
	r.latched = true
	msg := "waypoint reached, continue"
	if s.GPS.NextWaypointName != "" {
		msg = fmt.Sprintf("reached %s, continue", s.GPS.NextWaypointName)
	}
	return NewInstruction(Guidance, msg).WithFollowUp(FollowUpAction{Kind: Continue})
}

// --- GpsNavigation (10) ---

type gpsNavigationRule struct{}

func (gpsNavigationRule) Name() string  { return "GpsNavigation" }
func (gpsNavigationRule) Priority() int { return 10 }
func (gpsNavigationRule) Matches(s snapshot.Snapshot) bool {
	return s.HasActiveDestination() && s.IsOffCourse() && !s.HasObstacleFront()
}
func (gpsNavigationRule) Apply(s snapshot.Snapshot) Instruction {
	dir := "left"
	if s.GPS.HeadingDeviation != nil && -*s.GPS.HeadingDeviation < 0 {
		dir = "right"
	}
	verb := "drift"
	if s.GPS.HeadingDeviation != nil && math.Abs(*s.GPS.HeadingDeviation) >= strongDriftDeg {
		verb = "drift strongly"
	}
	return NewInstruction(Guidance, fmt.Sprintf("%s, turn toward the %s", verb, dir))
}

// --- ClearPath (0), fallback ---

type clearPathRule struct{}

func (clearPathRule) Name() string                        { return "ClearPath" }
func (clearPathRule) Priority() int                        { return 0 }
func (clearPathRule) Matches(snapshot.Snapshot) bool        { return true }
func (clearPathRule) Apply(snapshot.Snapshot) Instruction {
	return NewInstruction(Guidance, "clear, continue").WithFollowUp(FollowUpAction{Kind: Continue})
}

// --- side selection helper ---

type sideChoice struct {
	name     string
	followUp FollowUpKind
}

// chooseSide implements spec §4.5's tie-breaking policy: if exactly one
// side is free (> freeM), pick it; if both are free, pick the larger
// distance, or the GPS-consistent side when gpsSign is non-nil (positive
// favors left, negative favors right); if neither is free, ok is false.
func chooseSide(left, right, freeM float64, gpsSign *float64) (sideChoice, bool) {
	leftFree := left > freeM
	rightFree := right > freeM

	switch {
	case leftFree && !rightFree:
		return sideChoice{"left", TurnLeft}, true
	case rightFree && !leftFree:
		return sideChoice{"right", TurnRight}, true
	case leftFree && rightFree:
		if gpsSign != nil {
			if *gpsSign >= 0 {
				return sideChoice{"left", TurnLeft}, true
			}
			return sideChoice{"right", TurnRight}, true
		}
		if left >= right {
			return sideChoice{"left", TurnLeft}, true
		}
		return sideChoice{"right", TurnRight}, true
	default:
		return sideChoice{}, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
