package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/snapshot"
	"github.com/open-eyes/handheld/internal/state"
)

func dist(v float64) *float64 { return &v }

func TestBuildRejectsStalePacket(t *testing.T) {
	p := model.Packet{TimestampMs: 0}
	ts := state.FromPacket(p, nil, 5000)

	_, err := snapshot.Build(ts, nil, 5000)
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestBuildRejectsNaNIMU(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, IMU: model.IMU{Yaw: 0.0 / zero()}}
	ts := state.FromPacket(p, nil, 1000)

	_, err := snapshot.Build(ts, nil, 1000)
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func zero() float64 { return 0 }

func TestBuildMapsCenteredLowerSensorToFront(t *testing.T) {
	p := model.Packet{
		TimestampMs: 1000,
		Obstacles:   model.ObstaclePair{Lower: dist(0.8), ServoAngle: 0},
	}
	ts := state.FromPacket(p, nil, 1000)

	s, err := snapshot.Build(ts, nil, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, s.Front, 1e-9)
	assert.InDelta(t, snapshot.ObstacleMaxM, s.Left, 1e-9)
	assert.InDelta(t, snapshot.ObstacleMaxM, s.Right, 1e-9)
}

func TestBuildMapsRightSweepAndUsesUpperForFront(t *testing.T) {
	p := model.Packet{
		TimestampMs: 1000,
		Obstacles:   model.ObstaclePair{Lower: dist(0.5), Upper: dist(3.0), ServoAngle: 60},
	}
	ts := state.FromPacket(p, nil, 1000)

	s, err := snapshot.Build(ts, nil, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Right, 1e-9)
	assert.InDelta(t, 3.0, s.Front, 1e-9)
}

func TestObstacleHighFromUpperDistance(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, Obstacles: model.ObstaclePair{Upper: dist(1.0)}}
	ts := state.FromPacket(p, nil, 1000)

	s, err := snapshot.Build(ts, nil, 1000)
	require.NoError(t, err)
	assert.True(t, s.ObstacleHigh)
}

func TestObstacleHighFromCriticalSensorFlag(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, CriticalSensor: "upper", Obstacles: model.ObstaclePair{Upper: dist(5.0)}}
	ts := state.FromPacket(p, nil, 1000)

	s, err := snapshot.Build(ts, nil, 1000)
	require.NoError(t, err)
	assert.True(t, s.ObstacleHigh)
}

func TestWaterDetectedOnDangerOrSubmerged(t *testing.T) {
	p := model.Packet{TimestampMs: 1000, Water: model.WaterSensor{HumidityLevel: 70}}
	ts := state.FromPacket(p, nil, 1000)

	s, err := snapshot.Build(ts, nil, 1000)
	require.NoError(t, err)
	assert.True(t, s.WaterDetected)
}

func TestEnhancedModeShrinksDistancesWhenApproaching(t *testing.T) {
	prevPacket := model.Packet{TimestampMs: 0, Obstacles: model.ObstaclePair{Lower: dist(3.0), ServoAngle: 0}}
	prev := state.FromPacket(prevPacket, nil, 0)

	curPacket := model.Packet{TimestampMs: 1000, Obstacles: model.ObstaclePair{Lower: dist(1.0), ServoAngle: 0}}
	cur := state.FromPacket(curPacket, prev, 1000)
	require.True(t, cur.IsApproachingObstacle)

	s, err := snapshot.Build(cur, nil, 1000)
	require.NoError(t, err)
	assert.Less(t, s.Front, 1.0)
	assert.GreaterOrEqual(t, s.Front, 0.0)
}

func TestPredicateThresholds(t *testing.T) {
	s := snapshot.Snapshot{Front: 1.0, Left: 0.5, Right: 5, Yaw: 20}
	assert.True(t, s.HasObstacleFront())
	assert.True(t, s.HasObstacleLeft())
	assert.False(t, s.HasObstacleRight())
	assert.True(t, s.IsDeviating())
}

func TestOffCourseThresholds(t *testing.T) {
	mild, strong := 20.0, 50.0
	assert.True(t, (snapshot.Snapshot{GPS: snapshot.GpsContext{HeadingDeviation: &mild}}).IsOffCourse())
	assert.False(t, (snapshot.Snapshot{GPS: snapshot.GpsContext{HeadingDeviation: &mild}}).IsStronglyOffCourse())
	assert.True(t, (snapshot.Snapshot{GPS: snapshot.GpsContext{HeadingDeviation: &strong}}).IsStronglyOffCourse())
}
