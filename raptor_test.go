package raptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureTrip is one scheduled run of a route: parallel slices of
// arrival/departure times indexed the same way as the route's stop
// sequence.
type fixtureTrip struct {
	id         string
	departures []Time
	arrivals   []Time
}

type fixtureRoute struct {
	stops []string
	trips []fixtureTrip
}

// fixtureTimetable is a minimal in-memory Timetable used to exercise
// the engine against the worked scenarios of spec.md §8, grounded on
// the teacher's own GtfsStopStruct/GtfsStopTimeStruct fixtures but
// built directly against the Timetable interface instead of a GTFS
// feed.
type fixtureTimetable struct {
	routes    map[string]fixtureRoute
	routesBy  map[string][]string
	footpaths map[string][]Footpath[string]
}

func newFixture() *fixtureTimetable {
	return &fixtureTimetable{
		routes:    map[string]fixtureRoute{},
		routesBy:  map[string][]string{},
		footpaths: map[string][]Footpath[string]{},
	}
}

func (f *fixtureTimetable) addRoute(id string, stops []string, trips ...fixtureTrip) {
	f.routes[id] = fixtureRoute{stops: stops, trips: trips}
	for _, s := range stops {
		f.routesBy[s] = append(f.routesBy[s], id)
	}
}

func (f *fixtureTimetable) addFootpath(from, to string, d Time) {
	f.footpaths[from] = append(f.footpaths[from], Footpath[string]{To: to, Duration: d})
}

func (f *fixtureTimetable) StopsOnRoute(r string) []string { return f.routes[r].stops }

func (f *fixtureTimetable) IndexOf(r string, p string) (int, bool) {
	for i, s := range f.routes[r].stops {
		if s == p {
			return i, true
		}
	}
	return 0, false
}

func (f *fixtureTimetable) RoutesThrough(p string) []string { return f.routesBy[p] }

func (f *fixtureTimetable) EarliestTrip(r string, p string, tMin Time) (string, bool) {
	idx, ok := f.IndexOf(r, p)
	if !ok {
		return "", false
	}
	route := f.routes[r]
	best := ""
	bestDep := Unreachable
	for _, trip := range route.trips {
		dep := trip.departures[idx]
		if dep >= tMin && dep < bestDep {
			bestDep = dep
			best = trip.id
		}
	}
	return best, best != ""
}

func (f *fixtureTimetable) tripOf(r, id string) fixtureTrip {
	for _, t := range f.routes[r].trips {
		if t.id == id {
			return t
		}
	}
	panic("unknown trip " + id)
}

// findTripRoute locates which route a trip id belongs to; fixtures in
// this file never reuse a trip id across routes.
func (f *fixtureTimetable) findTripRoute(trip string) string {
	for rid, route := range f.routes {
		for _, t := range route.trips {
			if t.id == trip {
				return rid
			}
		}
	}
	panic("unknown trip " + trip)
}

func (f *fixtureTimetable) Departure(trip string, p string) Time {
	r := f.findTripRoute(trip)
	idx, _ := f.IndexOf(r, p)
	return f.tripOf(r, trip).departures[idx]
}

func (f *fixtureTimetable) Arrival(trip string, p string) Time {
	r := f.findTripRoute(trip)
	idx, _ := f.IndexOf(r, p)
	return f.tripOf(r, trip).arrivals[idx]
}

func (f *fixtureTimetable) FootpathsFrom(p string) []Footpath[string] { return f.footpaths[p] }

func (f *fixtureTimetable) LookupStop(externalID string) (string, bool) {
	if _, ok := f.routesBy[externalID]; ok {
		return externalID, true
	}
	for from, fps := range f.footpaths {
		if from == externalID {
			return externalID, true
		}
		for _, fp := range fps {
			if fp.To == externalID {
				return externalID, true
			}
		}
	}
	return "", false
}

const h8 = Time(8 * 3600)

// Scenario A: single route, no transfers.
func TestScenarioASingleRoute(t *testing.T) {
	f := newFixture()
	f.addRoute("r", []string{"A", "B", "C"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600, h8 + 1200},
		arrivals:   []Time{h8, h8 + 600, h8 + 1200},
	})

	journeys := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Len(t, journeys, 1)
	require.Equal(t, h8+1200, journeys[0].Arrival)
	require.Equal(t, 0, journeys[0].Transfers)
	require.Len(t, journeys[0].Legs, 1)
	require.Equal(t, "A", journeys[0].Legs[0].Board)
	require.Equal(t, "C", journeys[0].Legs[0].Alight)
}

// Scenario B: two routes with a transfer at B, connection made.
func TestScenarioBTransferMade(t *testing.T) {
	f := newFixture()
	f.addRoute("r1", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})
	f.addRoute("r2", []string{"B", "C"}, fixtureTrip{
		id:         "t2",
		departures: []Time{h8 + 900, h8 + 1500},
		arrivals:   []Time{h8 + 900, h8 + 1500},
	})

	journeys := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Len(t, journeys, 1)
	require.Equal(t, h8+1500, journeys[0].Arrival)
	require.Equal(t, 1, journeys[0].Transfers)
	require.Len(t, journeys[0].Legs, 2)
	require.Equal(t, "A", journeys[0].Legs[0].Board)
	require.Equal(t, "B", journeys[0].Legs[0].Alight)
	require.Equal(t, "B", journeys[0].Legs[1].Board)
	require.Equal(t, "C", journeys[0].Legs[1].Alight)
}

// Scenario C: missed connection, no journey.
func TestScenarioCMissedConnection(t *testing.T) {
	f := newFixture()
	f.addRoute("r1", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})
	f.addRoute("r2", []string{"B", "C"}, fixtureTrip{
		id:         "t2",
		departures: []Time{h8 + 300, h8 + 900},
		arrivals:   []Time{h8 + 300, h8 + 900},
	})

	journeys := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Empty(t, journeys)
}

// Scenario D: footpath creates a transfer, short footpath makes it,
// long footpath misses it.
func TestScenarioDFootpathTransfer(t *testing.T) {
	build := func(walk Time) *fixtureTimetable {
		f := newFixture()
		f.addRoute("r1", []string{"A", "X"}, fixtureTrip{
			id:         "t1",
			departures: []Time{h8, h8 + 600},
			arrivals:   []Time{h8, h8 + 600},
		})
		f.addRoute("r2", []string{"Y", "C"}, fixtureTrip{
			id:         "t2",
			departures: []Time{h8 + 1200, h8 + 1800},
			arrivals:   []Time{h8 + 1200, h8 + 1800},
		})
		f.addFootpath("X", "Y", walk)
		return f
	}

	short := build(300)
	journeys := Query[string, string, string](short, 3, h8, "A", "C", Options{})
	require.Len(t, journeys, 1)
	require.Equal(t, h8+1800, journeys[0].Arrival)

	long := build(1000)
	journeys = Query[string, string, string](long, 3, h8, "A", "C", Options{})
	require.Empty(t, journeys)
}

// Scenario E: transfer-vs-time Pareto frontier, two non-dominated
// journeys in increasing-k order.
func TestScenarioEParetoFrontier(t *testing.T) {
	f := newFixture()
	f.addRoute("r1", []string{"A", "C"}, fixtureTrip{
		id:         "direct",
		departures: []Time{h8, h8 + 7200},
		arrivals:   []Time{h8, h8 + 7200},
	})
	f.addRoute("r2", []string{"A", "B"}, fixtureTrip{
		id:         "leg1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})
	f.addRoute("r3", []string{"B", "C"}, fixtureTrip{
		id:         "leg2",
		departures: []Time{h8 + 900, h8 + 5400},
		arrivals:   []Time{h8 + 900, h8 + 5400},
	})

	journeys := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Len(t, journeys, 2)
	require.Equal(t, 0, journeys[0].Transfers)
	require.Equal(t, h8+7200, journeys[0].Arrival)
	require.Equal(t, 1, journeys[1].Transfers)
	require.Equal(t, h8+5400, journeys[1].Arrival)

	// Pareto non-domination (invariant 5, spec.md §8): neither journey
	// dominates the other.
	require.False(t, journeys[0].Transfers <= journeys[1].Transfers && journeys[0].Arrival <= journeys[1].Arrival)
	require.False(t, journeys[1].Transfers <= journeys[0].Transfers && journeys[1].Arrival <= journeys[0].Arrival)
}

// Scenario F: K_max=0, origin==destination.
func TestScenarioFTrivialOriginEqualsDestination(t *testing.T) {
	f := newFixture()
	f.addRoute("r", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})

	journeys := Query[string, string, string](f, 0, h8, "A", "A", Options{})
	require.Len(t, journeys, 1)
	require.Empty(t, journeys[0].Legs)
	require.Equal(t, h8, journeys[0].Arrival)
}

func TestKMaxZeroDifferentStopsReturnsEmpty(t *testing.T) {
	f := newFixture()
	f.addRoute("r", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})

	journeys := Query[string, string, string](f, 0, h8, "A", "B", Options{})
	require.Empty(t, journeys)
}

// Invariant 7 (reconstruction soundness): replay each leg's
// board/alight times against the fixture and check they chain
// correctly.
func TestReconstructionSoundness(t *testing.T) {
	f := newFixture()
	f.addRoute("r1", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})
	f.addRoute("r2", []string{"B", "C"}, fixtureTrip{
		id:         "t2",
		departures: []Time{h8 + 900, h8 + 1500},
		arrivals:   []Time{h8 + 900, h8 + 1500},
	})

	journeys := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Len(t, journeys, 1)

	j := journeys[0]
	clock := h8
	for i, leg := range j.Legs {
		require.GreaterOrEqual(t, leg.Depart, clock, "leg %d departs before previous leg arrived", i)
		require.LessOrEqual(t, leg.Depart, leg.Arrive)
		clock = leg.Arrive
	}
	require.Equal(t, j.Arrival, clock)
}

// Invariant 9: idempotence across repeated queries.
func TestIdempotence(t *testing.T) {
	f := newFixture()
	f.addRoute("r1", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})
	f.addRoute("r2", []string{"B", "C"}, fixtureTrip{
		id:         "t2",
		departures: []Time{h8 + 900, h8 + 1500},
		arrivals:   []Time{h8 + 900, h8 + 1500},
	})

	first := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	second := Query[string, string, string](f, 3, h8, "A", "C", Options{})
	require.Equal(t, first, second)
}

// A faster parallel route reaches B in round 1; round 2's scan of the
// slower route, re-boarding at B using round 1's label, should pick up
// the slow route's later, faster-departing trip instead of the one
// boarded at A in round 1 (spec.md §4.3, step 2's use of τ_{k-1}).
func TestOnRouteTripSwitch(t *testing.T) {
	f := newFixture()
	f.addRoute("fast", []string{"A", "B"}, fixtureTrip{
		id:         "direct",
		departures: []Time{h8, h8 + 100},
		arrivals:   []Time{h8, h8 + 100},
	})
	f.addRoute("slow", []string{"A", "B", "C"},
		fixtureTrip{
			id:         "early",
			departures: []Time{h8 + 50, h8 + 3000, h8 + 6000},
			arrivals:   []Time{h8 + 50, h8 + 3000, h8 + 6000},
		},
		fixtureTrip{
			id:         "catchup",
			departures: []Time{h8 + 200, h8 + 250, h8 + 300},
			arrivals:   []Time{h8 + 200, h8 + 250, h8 + 300},
		},
	)

	journeys := Query[string, string, string](f, 2, h8, "A", "C", Options{})
	require.NotEmpty(t, journeys)
	best := journeys[len(journeys)-1]
	require.Equal(t, h8+300, best.Arrival)

	for i := 1; i < len(journeys); i++ {
		require.LessOrEqual(t, journeys[i].Arrival, journeys[i-1].Arrival, "arrival times must be non-increasing across the Pareto frontier")
	}
}

func TestUnknownStopErrors(t *testing.T) {
	f := newFixture()
	f.addRoute("r", []string{"A", "B"}, fixtureTrip{
		id:         "t1",
		departures: []Time{h8, h8 + 600},
		arrivals:   []Time{h8, h8 + 600},
	})

	_, err := QueryByID[string, string, string](f, 3, h8, "Z", "B", Options{})
	require.ErrorIs(t, err, ErrUnknownOrigin)

	_, err = QueryByID[string, string, string](f, 3, h8, "A", "Z", Options{})
	require.ErrorIs(t, err, ErrUnknownDestination)

	journeys, err := QueryByID[string, string, string](f, 3, h8, "A", "B", Options{})
	require.NoError(t, err)
	require.Len(t, journeys, 1)
}
