// Package model defines the immutable sensor and routing value types shared
// across the handheld pipeline: IMU orientation, obstacle and water
// readings, GPS fixes, the composite Packet, and the waypoint/destination
// types consumed by the route navigator.
package model

import "errors"

// Sentinel error kinds, wrapped with context via fmt.Errorf("...: %w", ...)
// at the call site. See spec §7 for the propagation policy of each kind.
var (
	ErrInvalidPacket  = errors.New("invalid packet")
	ErrStalePacket    = errors.New("stale packet")
	ErrInvalidState   = errors.New("invalid state")
	ErrNoValidRule    = errors.New("no valid rule")
	ErrTransport      = errors.New("transport error")
	ErrSpeech         = errors.New("speech error")
	ErrNavigation     = errors.New("navigation error")
)
