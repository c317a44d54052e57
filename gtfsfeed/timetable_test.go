package gtfsfeed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/transitkit/raptor"
)

func TestBuildTimetableGroupsTripsIntoRoutes(t *testing.T) {
	stops := []FlatStop{
		{ID: "A", Lat: 1, Lon: 1},
		{ID: "B", Lat: 2, Lon: 2},
		{ID: "C", Lat: 3, Lon: 3},
	}
	stopTimes := []FlatStopTime{
		{StopID: "A", TripID: "t1", RouteID: "r1", Sequence: 0, DepartureSeconds: 28800, ArrivalSeconds: 28800},
		{StopID: "B", TripID: "t1", RouteID: "r1", Sequence: 1, DepartureSeconds: 29100, ArrivalSeconds: 29100},
		{StopID: "C", TripID: "t1", RouteID: "r1", Sequence: 2, DepartureSeconds: 29400, ArrivalSeconds: 29400},

		{StopID: "A", TripID: "t2", RouteID: "r1", Sequence: 0, DepartureSeconds: 29800, ArrivalSeconds: 29800},
		{StopID: "B", TripID: "t2", RouteID: "r1", Sequence: 1, DepartureSeconds: 30100, ArrivalSeconds: 30100},
		{StopID: "C", TripID: "t2", RouteID: "r1", Sequence: 2, DepartureSeconds: 30400, ArrivalSeconds: 30400},
	}

	tt, err := BuildTimetable(stops, nil, stopTimes)
	require.NoError(t, err)

	routes := tt.RoutesThrough("A")
	require.Len(t, routes, 1)
	routeID := routes[0]

	require.Equal(t, []string{"A", "B", "C"}, tt.StopsOnRoute(routeID))

	trip, ok := tt.EarliestTrip(routeID, "A", 29000)
	require.True(t, ok)
	require.Equal(t, "t2", trip, "the later trip should win once tMin passes t1's departure")

	require.Equal(t, raptor.Time(29400), tt.Arrival("t1", "C"))
	require.Equal(t, raptor.Time(29800), tt.Departure("t2", "A"))
}

func TestBuildTimetableSeparatesRoutesByStopSequence(t *testing.T) {
	stops := []FlatStop{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	stopTimes := []FlatStopTime{
		{StopID: "A", TripID: "loop", RouteID: "r1", Sequence: 0, DepartureSeconds: 100, ArrivalSeconds: 100},
		{StopID: "B", TripID: "loop", RouteID: "r1", Sequence: 1, DepartureSeconds: 200, ArrivalSeconds: 200},

		{StopID: "B", TripID: "branch", RouteID: "r1", Sequence: 0, DepartureSeconds: 300, ArrivalSeconds: 300},
		{StopID: "C", TripID: "branch", RouteID: "r1", Sequence: 1, DepartureSeconds: 400, ArrivalSeconds: 400},
	}

	tt, err := BuildTimetable(stops, nil, stopTimes)
	require.NoError(t, err)

	// Same GTFS route id but two different stop sequences must become
	// two distinct RAPTOR routes.
	routesThroughB := tt.RoutesThrough("B")
	require.Len(t, routesThroughB, 2)
}

func TestBuildTimetableFootpathsAndLookup(t *testing.T) {
	stops := []FlatStop{{ID: "A", Lat: 10, Lon: 20}, {ID: "B"}}
	transfers := []FlatTransfer{{FromStopID: "A", ToStopID: "B", MinSeconds: 180}}

	tt, err := BuildTimetable(stops, transfers, nil)
	require.NoError(t, err)

	fps := tt.FootpathsFrom("A")
	require.Len(t, fps, 1)
	require.Equal(t, "B", fps[0].To)
	require.Equal(t, raptor.Time(180), fps[0].Duration)

	resolved, ok := tt.LookupStop("A")
	require.True(t, ok)
	require.Equal(t, "A", resolved)

	_, ok = tt.LookupStop("unknown")
	require.False(t, ok)

	lon, lat, ok := tt.StopCoordinate("A")
	require.True(t, ok)
	require.Equal(t, 20.0, lon)
	require.Equal(t, 10.0, lat)
}

func TestTimetableImplementsRaptorInterface(t *testing.T) {
	var _ raptor.Timetable[string, string, string] = (*Timetable)(nil)
}
