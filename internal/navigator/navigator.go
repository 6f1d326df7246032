// Package navigator sequences a loaded destination's waypoints against a
// stream of GPS fixes, exposing bearing/distance/progress read-outs to the
// snapshot adapter (spec §4.3).
package navigator

import (
	"fmt"

	"github.com/open-eyes/handheld/internal/model"
)

// DefaultReachedThresholdM is the distance below which a waypoint counts as
// reached.
const DefaultReachedThresholdM = 10.0

// Event is emitted by UpdatePosition when a waypoint or the destination is
// reached.
type Event int

const (
	NoEvent Event = iota
	WaypointReached
	DestinationReached
)

// position is the last GPS fix accepted for navigation purposes.
type position struct {
	lat, lon float64
}

// RouteNavigator tracks progress along a loaded Destination. It is mutated
// only from the pipeline task (spec §5's single-writer rule).
type RouteNavigator struct {
	destination      *model.Destination
	currentIndex     int
	currentPosition  *position
	reachedThreshold float64
}

// New builds a RouteNavigator with the default reached threshold.
func New() *RouteNavigator {
	return &RouteNavigator{reachedThreshold: DefaultReachedThresholdM}
}

// WithReachedThreshold overrides the waypoint-reached radius, in meters.
func (n *RouteNavigator) WithReachedThreshold(meters float64) *RouteNavigator {
	if meters > 0 {
		n.reachedThreshold = meters
	}
	return n
}

// LoadDestination validates and installs dest as the active route, resetting
// progress to the first waypoint.
func (n *RouteNavigator) LoadDestination(dest model.Destination) error {
	if err := dest.Normalize(); err != nil {
		return err
	}
	n.destination = &dest
	n.currentIndex = 0
	n.currentPosition = nil
	return nil
}

// Clear drops the active destination, e.g. when navigation is cancelled.
func (n *RouteNavigator) Clear() {
	n.destination = nil
	n.currentIndex = 0
	n.currentPosition = nil
}

// HasActiveDestination reports whether a destination is currently loaded and
// not yet fully traversed.
func (n *RouteNavigator) HasActiveDestination() bool {
	return n.destination != nil && n.currentIndex < len(n.destination.Waypoints)
}

// CurrentWaypoint returns the waypoint currently being approached, or false
// if there is none (no destination, or already arrived).
func (n *RouteNavigator) CurrentWaypoint() (model.Waypoint, bool) {
	if n.destination == nil || n.currentIndex >= len(n.destination.Waypoints) {
		return model.Waypoint{}, false
	}
	return n.destination.Waypoints[n.currentIndex], true
}

// UpdatePosition advances the route state from a new GPS fix. It is a no-op
// (returning NoEvent) if there is no active destination or the fix carries
// no usable position.
func (n *RouteNavigator) UpdatePosition(gps model.GpsFix) Event {
	if !n.HasActiveDestination() || !gps.HasFix() {
		return NoEvent
	}
	n.currentPosition = &position{lat: *gps.Latitude, lon: *gps.Longitude}

	wp, ok := n.CurrentWaypoint()
	if !ok {
		return NoEvent
	}

	dist := haversineDistanceM(n.currentPosition.lat, n.currentPosition.lon, wp.Latitude, wp.Longitude)
	if dist > n.reachedThreshold {
		return NoEvent
	}

	n.currentIndex++
	if n.currentIndex >= len(n.destination.Waypoints) {
		return DestinationReached
	}
	return WaypointReached
}

// TargetBearing returns the initial great-circle bearing from the current
// position toward the current waypoint, or false if either is unavailable.
func (n *RouteNavigator) TargetBearing() (float64, bool) {
	wp, ok := n.CurrentWaypoint()
	if !ok || n.currentPosition == nil {
		return 0, false
	}
	return initialBearingDeg(n.currentPosition.lat, n.currentPosition.lon, wp.Latitude, wp.Longitude), true
}

// DistanceToCurrentWaypoint returns the great-circle distance from the
// current position to the waypoint being approached.
func (n *RouteNavigator) DistanceToCurrentWaypoint() (float64, bool) {
	wp, ok := n.CurrentWaypoint()
	if !ok || n.currentPosition == nil {
		return 0, false
	}
	return haversineDistanceM(n.currentPosition.lat, n.currentPosition.lon, wp.Latitude, wp.Longitude), true
}

// DistanceToDestination sums the distance from the current position to the
// current waypoint plus every remaining inter-waypoint leg to the end.
func (n *RouteNavigator) DistanceToDestination() (float64, bool) {
	if n.destination == nil || n.currentPosition == nil {
		return 0, false
	}
	remaining := n.destination.Waypoints[n.currentIndex:]
	if len(remaining) == 0 {
		return 0, true
	}

	total, ok := n.DistanceToCurrentWaypoint()
	if !ok {
		return 0, false
	}
	for i := 0; i+1 < len(remaining); i++ {
		a, b := remaining[i], remaining[i+1]
		total += haversineDistanceM(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return total, true
}

// Progress returns the fraction of waypoints already reached, in [0,1].
func (n *RouteNavigator) Progress() float64 {
	if n.destination == nil || len(n.destination.Waypoints) == 0 {
		return 0
	}
	return float64(n.currentIndex) / float64(len(n.destination.Waypoints))
}

// DestinationName returns the active destination's name, if any.
func (n *RouteNavigator) DestinationName() (string, bool) {
	if n.destination == nil {
		return "", false
	}
	return n.destination.Name, true
}

// String implements a compact human-readable summary, useful in stats/log
// output.
func (n *RouteNavigator) String() string {
	if n.destination == nil {
		return "navigator(idle)"
	}
	return fmt.Sprintf("navigator(%s, waypoint %d/%d)", n.destination.Name, n.currentIndex, len(n.destination.Waypoints))
}
