package model

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// WaypointKind classifies a waypoint's role in a route.
type WaypointKind string

const (
	WaypointStart        WaypointKind = "start"
	WaypointIntermediate WaypointKind = "intermediate"
	WaypointDestination  WaypointKind = "destination"
)

// Waypoint is a named geographic point in an ordered route.
type Waypoint struct {
	Latitude    float64      `json:"latitude" yaml:"latitude"`
	Longitude   float64      `json:"longitude" yaml:"longitude"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Instruction string       `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Kind        WaypointKind `json:"type,omitempty" yaml:"type,omitempty"`
}

// TransportMode is the mode of travel a Destination was planned for.
type TransportMode string

const (
	TransportWalking TransportMode = "walking"
	TransportCycling TransportMode = "cycling"
	TransportTransit TransportMode = "transit"
	TransportDriving TransportMode = "driving"
)

// Destination is an ordered route of at least two waypoints, immutable
// after load.
type Destination struct {
	Name                string        `json:"name" yaml:"name"`
	TransportMode       TransportMode `json:"transportMode" yaml:"transportMode"`
	TotalDistanceMeters *float64      `json:"totalDistanceMeters,omitempty" yaml:"totalDistanceMeters,omitempty"`
	EstimatedTimeSeconds *int         `json:"estimatedTimeSeconds,omitempty" yaml:"estimatedTimeSeconds,omitempty"`
	Waypoints           []Waypoint    `json:"waypoints" yaml:"waypoints"`
}

// Normalize fills in the implicit start/destination kinds (first waypoint
// is start, last is destination, unless already tagged) and validates the
// minimum shape required by the route navigator.
func (d *Destination) Normalize() error {
	if d.Name == "" {
		return fmt.Errorf("%w: destination name is required", ErrNavigation)
	}
	if len(d.Waypoints) < 2 {
		return fmt.Errorf("%w: destination requires at least 2 waypoints, got %d", ErrNavigation, len(d.Waypoints))
	}
	d.Name = norm.NFC.String(d.Name)
	if d.Waypoints[0].Kind == "" {
		d.Waypoints[0].Kind = WaypointStart
	}
	last := len(d.Waypoints) - 1
	if d.Waypoints[last].Kind == "" {
		d.Waypoints[last].Kind = WaypointDestination
	}
	for i := range d.Waypoints {
		if d.Waypoints[i].Kind == "" {
			d.Waypoints[i].Kind = WaypointIntermediate
		}
		if d.Waypoints[i].Latitude < -90 || d.Waypoints[i].Latitude > 90 ||
			d.Waypoints[i].Longitude < -180 || d.Waypoints[i].Longitude > 180 {
			return fmt.Errorf("%w: waypoint %d has out-of-range coordinates", ErrNavigation, i)
		}
		d.Waypoints[i].Name = norm.NFC.String(d.Waypoints[i].Name)
		d.Waypoints[i].Instruction = norm.NFC.String(d.Waypoints[i].Instruction)
	}
	return nil
}
