package model

import "math"

// Packet is one synchronized sensor reading bundled by the cane firmware
// and delivered as a single BLE notification (see §6 for the wire JSON).
type Packet struct {
	TimestampMs int64        `json:"timestamp"`
	IMU         IMU          `json:"imu"`
	Obstacles   ObstaclePair `json:"obstacles"`
	Water       WaterSensor  `json:"waterSensor"`
	GPS         GpsFix       `json:"gps"`

	// CriticalSensor is an optional firmware-side redundant flag naming the
	// sensor ("upper"/"lower") that tripped a hardware-level danger
	// threshold, independent of the distance recomputation done here. It is
	// not part of the wire schema in §6 but is treated as authoritative
	// when present (see Open Questions in DESIGN.md).
	CriticalSensor string `json:"criticalSensor,omitempty"`

	// Immediate is an optional firmware-side flag asserted when the cane's
	// own onboard logic (not the derived danger score) has already decided
	// the situation demands an immediate alert, e.g. a hardware interrupt
	// on the front bumper. Same status as CriticalSensor: not part of the
	// literal §6 schema, treated as authoritative when present.
	Immediate bool `json:"immediate,omitempty"`
}

const (
	maxPastAgeMs   = 3_600_000
	maxFutureMs    = 5_000
	freshAgeMs     = 1_000
	staleAgeMs     = 2_000
	validationAgeMs = 5_000
)

// AgeMs returns nowMs - p.TimestampMs.
func (p Packet) AgeMs(nowMs int64) int64 {
	return nowMs - p.TimestampMs
}

// WithinClockSkew reports whether the packet's timestamp lies within the
// tolerated window relative to nowMs: not more than 1 hour in the past, and
// not more than 5 seconds in the future.
func (p Packet) WithinClockSkew(nowMs int64) bool {
	age := p.AgeMs(nowMs)
	return age >= -maxFutureMs && age <= maxPastAgeMs
}

// Fresh reports age < 1000ms.
func (p Packet) Fresh(nowMs int64) bool {
	return p.AgeMs(nowMs) < freshAgeMs
}

// Stale reports age > 2000ms.
func (p Packet) Stale(nowMs int64) bool {
	return p.AgeMs(nowMs) > staleAgeMs
}

// ValidForPipeline is the pipeline's ingest gate (§4.6 step 1): the packet
// must parse (IMU has no NaN) and its age must not exceed 5 seconds.
func (p Packet) ValidForPipeline(nowMs int64) bool {
	if p.IMU.HasNaN() {
		return false
	}
	age := p.AgeMs(nowMs)
	return age <= validationAgeMs
}

// HasNaN reports whether any float field that must never be NaN is NaN.
func (p Packet) HasNaN() bool {
	return p.IMU.HasNaN() || math.IsNaN(p.Obstacles.ServoAngle) || math.IsNaN(p.Water.HumidityLevel)
}
