package navigator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/navigator"
)

func lat(v float64) *float64 { return &v }

func fix(lat_, lon float64) model.GpsFix {
	return model.GpsFix{Latitude: lat(lat_), Longitude: lat(lon), FixType: model.Fix3D}
}

func straightRoute() model.Destination {
	return model.Destination{
		Name:          "loop",
		TransportMode: model.TransportWalking,
		Waypoints: []model.Waypoint{
			{Latitude: 40.0000, Longitude: -73.0000},
			{Latitude: 40.0010, Longitude: -73.0000},
			{Latitude: 40.0020, Longitude: -73.0000},
		},
	}
}

func TestHaversineSymmetryAndZeroForIdenticalPoints(t *testing.T) {
	n1 := navigator.New()
	require.NoError(t, n1.LoadDestination(model.Destination{
		Name: "a", Waypoints: []model.Waypoint{
			{Latitude: 10, Longitude: 20},
			{Latitude: 10, Longitude: 20},
		},
	}))
	n1.UpdatePosition(fix(10, 20))
	d, ok := n1.DistanceToCurrentWaypoint()
	require.True(t, ok)
	assert.InDelta(t, 0, d, 1e-6)

	// Symmetry: the distance from A to B equals the distance from B to A.
	toB := navigator.New()
	require.NoError(t, toB.LoadDestination(model.Destination{
		Name: "ab", Waypoints: []model.Waypoint{
			{Latitude: 10.01, Longitude: 20.01},
			{Latitude: 10.02, Longitude: 20.02},
		},
	}))
	toB.UpdatePosition(fix(10, 20))
	dAB, ok := toB.DistanceToCurrentWaypoint()
	require.True(t, ok)

	toA := navigator.New()
	require.NoError(t, toA.LoadDestination(model.Destination{
		Name: "ba", Waypoints: []model.Waypoint{
			{Latitude: 10, Longitude: 20},
			{Latitude: 10.02, Longitude: 20.02},
		},
	}))
	toA.UpdatePosition(fix(10.01, 20.01))
	dBA, ok := toA.DistanceToCurrentWaypoint()
	require.True(t, ok)

	assert.Greater(t, dAB, 0.0)
	assert.InDelta(t, dAB, dBA, 1e-6)
}

func TestUpdatePositionEmitsWaypointReachedThenDestinationReached(t *testing.T) {
	n := navigator.New().WithReachedThreshold(15)
	require.NoError(t, n.LoadDestination(straightRoute()))

	ev := n.UpdatePosition(fix(40.0000, -73.0000))
	assert.Equal(t, navigator.WaypointReached, ev)

	ev = n.UpdatePosition(fix(40.0010, -73.0000))
	assert.Equal(t, navigator.WaypointReached, ev)

	ev = n.UpdatePosition(fix(40.0020, -73.0000))
	assert.Equal(t, navigator.DestinationReached, ev)

	assert.False(t, n.HasActiveDestination())
}

func TestUpdatePositionNoEventWhenFarFromWaypoint(t *testing.T) {
	n := navigator.New()
	require.NoError(t, n.LoadDestination(straightRoute()))

	ev := n.UpdatePosition(fix(41.0, -73.0))
	assert.Equal(t, navigator.NoEvent, ev)
	assert.True(t, n.HasActiveDestination())
}

func TestLoadDestinationRejectsSingleWaypoint(t *testing.T) {
	n := navigator.New()
	err := n.LoadDestination(model.Destination{
		Name:      "bad",
		Waypoints: []model.Waypoint{{Latitude: 1, Longitude: 1}},
	})
	assert.Error(t, err)
}

func TestProgressAdvancesWithEachWaypoint(t *testing.T) {
	n := navigator.New().WithReachedThreshold(15)
	require.NoError(t, n.LoadDestination(straightRoute()))
	assert.Zero(t, n.Progress())

	n.UpdatePosition(fix(40.0000, -73.0000))
	assert.InDelta(t, 1.0/3.0, n.Progress(), 1e-9)
}

func TestTargetBearingPointsNorthForDueNorthWaypoint(t *testing.T) {
	n := navigator.New().WithReachedThreshold(1)
	require.NoError(t, n.LoadDestination(straightRoute()))
	n.UpdatePosition(fix(39.0, -73.0000))

	bearing, ok := n.TargetBearing()
	require.True(t, ok)
	assert.InDelta(t, 0.0, bearing, 1.0)
}
