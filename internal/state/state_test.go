package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/state"
)

func dist(v float64) *float64 { return &v }

func TestAngleDeltaWrapsToShortestPath(t *testing.T) {
	assert.InDelta(t, 2.0, state.AngleDelta(179, -179), 1e-9)
	assert.InDelta(t, -2.0, state.AngleDelta(-179, 179), 1e-9)
	assert.InDelta(t, 10.0, state.AngleDelta(350, 0), 1e-9)
}

func TestAngleDeltaBoundedByOneEighty(t *testing.T) {
	for a := -180.0; a < 180; a += 37 {
		for b := -180.0; b < 180; b += 53 {
			d := state.AngleDelta(a, b)
			assert.LessOrEqual(t, d, 180.0)
			assert.Greater(t, d, -180.0)
		}
	}
}

func TestFromPacketFirstCycleHasNoDeltas(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, IMU: model.IMU{Yaw: 10}}
	s := state.FromPacket(p, nil, 1000)

	assert.Equal(t, state.IMUDelta{}, s.IMUDelta)
	assert.False(t, s.IsRotatingFast)
	assert.False(t, s.UpperDelta.Present)
	assert.False(t, s.LowerDelta.Present)
	assert.Zero(t, s.ApproachSpeed)
}

func TestFromPacketRotationSpeed(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, IMU: model.IMU{Yaw: 0}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 500, IMU: model.IMU{Yaw: 45}}
	cur := state.FromPacket(curPacket, prev, 500)

	assert.InDelta(t, 90.0, cur.RotationSpeed, 1e-9)
	assert.True(t, cur.IsRotatingFast)
}

func TestObstacleDeltaAppearanceIsNegative(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, Obstacles: model.ObstaclePair{Upper: nil}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 500, Obstacles: model.ObstaclePair{Upper: dist(1.0)}}
	cur := state.FromPacket(curPacket, prev, 500)

	assert.True(t, cur.UpperDelta.Present)
	assert.InDelta(t, -1.0, cur.UpperDelta.Value, 1e-9)
}

func TestObstacleDeltaDisappearanceIsPositive(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, Obstacles: model.ObstaclePair{Upper: dist(1.0)}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 500, Obstacles: model.ObstaclePair{Upper: nil}}
	cur := state.FromPacket(curPacket, prev, 500)

	assert.True(t, cur.UpperDelta.Present)
	assert.InDelta(t, 1.0, cur.UpperDelta.Value, 1e-9)
}

func TestApproachSpeedOnlyCountsClosingMotion(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, Obstacles: model.ObstaclePair{Upper: dist(2.0)}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 1000, Obstacles: model.ObstaclePair{Upper: dist(1.0)}}
	cur := state.FromPacket(curPacket, prev, 1000)

	assert.InDelta(t, 1.0, cur.ApproachSpeed, 1e-9)
	assert.True(t, cur.IsApproachingObstacle)
}

func TestApproachSpeedZeroWhenReceding(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, Obstacles: model.ObstaclePair{Upper: dist(1.0)}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 1000, Obstacles: model.ObstaclePair{Upper: dist(2.0)}}
	cur := state.FromPacket(curPacket, prev, 1000)

	assert.Zero(t, cur.ApproachSpeed)
	assert.False(t, cur.IsApproachingObstacle)
}

func TestRequiresImmediateAlertOnPacketFlag(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, Immediate: true}
	s := state.FromPacket(p, nil, 1000)

	assert.True(t, s.RequiresImmediateAlert)
	assert.Equal(t, state.AlertEmergency, s.AlertPriority)
}

func TestDangerLevelIncludesStaleContribution(t *testing.T) {
	fresh := model.Packet{TimestampMs: 1000}
	stale := model.Packet{TimestampMs: 0}

	sFresh := state.FromPacket(fresh, nil, 1000)
	sStale := state.FromPacket(stale, nil, 3000)

	assert.Greater(t, sStale.DangerLevel, sFresh.DangerLevel)
}

func TestRing2AdvanceRetiresCurrentToPrevious(t *testing.T) {
	var r state.Ring2
	assert.Nil(t, r.Current())
	assert.Nil(t, r.Previous())

	s1 := state.FromPacket(model.Packet{TimestampMs: 0}, nil, 0)
	r.Advance(s1)
	assert.Same(t, s1, r.Current())
	assert.Nil(t, r.Previous())

	s2 := state.FromPacket(model.Packet{TimestampMs: 100}, s1, 100)
	r.Advance(s2)
	assert.Same(t, s2, r.Current())
	assert.Same(t, s1, r.Previous())
}
