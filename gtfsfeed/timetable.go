package gtfsfeed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/transitkit/raptor"
)

// tripRecord is one trip's arrival/departure pair at every stop of its
// route, aligned index-for-index with the owning route's stop
// sequence.
type tripRecord struct {
	id         string
	departures []int
	arrivals   []int
}

// routeRecord is one equivalence class of trips sharing the same
// ordered stop sequence (spec.md's Route), sorted by departure at the
// first stop so EarliestTrip can assume trips never overtake each
// other en route — the standard GTFS/RAPTOR precondition.
type routeRecord struct {
	id    string
	stops []string
	index map[string]int
	trips []tripRecord
}

// Timetable is a raptor.Timetable[string, string, string] backed by a
// static GTFS feed held entirely in memory.
type Timetable struct {
	stops     map[string]FlatStop
	routes    map[string]*routeRecord
	routesBy  map[string][]string
	footpaths map[string][]raptor.Footpath[string]
}

// BuildTimetable assembles a Timetable from already-extracted flat
// records. It is pure and has no dependency on gtfsparser, which keeps
// it directly testable against hand-built fixtures.
func BuildTimetable(stops []FlatStop, transfers []FlatTransfer, stopTimes []FlatStopTime) (*Timetable, error) {
	tt := &Timetable{
		stops:     make(map[string]FlatStop, len(stops)),
		routes:    make(map[string]*routeRecord),
		routesBy:  make(map[string][]string),
		footpaths: make(map[string][]raptor.Footpath[string]),
	}

	for _, s := range stops {
		tt.stops[s.ID] = s
	}

	byTrip := make(map[string][]FlatStopTime)
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	// fingerprint groups trips into routes: same GTFS route id plus the
	// same ordered stop sequence is one RAPTOR route, mirroring
	// "routes are equivalence classes of stop sequences."
	type built struct {
		routeID string
		stopIDs []string
		trip    tripRecord
	}
	var tripsBuilt []built

	for tripID, sts := range byTrip {
		sort.Slice(sts, func(i, j int) bool { return sts[i].Sequence < sts[j].Sequence })

		stopIDs := make([]string, len(sts))
		departures := make([]int, len(sts))
		arrivals := make([]int, len(sts))
		routeID := ""
		for i, st := range sts {
			stopIDs[i] = st.StopID
			departures[i] = st.DepartureSeconds
			arrivals[i] = st.ArrivalSeconds
			routeID = st.RouteID
		}
		tripsBuilt = append(tripsBuilt, built{
			routeID: routeID,
			stopIDs: stopIDs,
			trip:    tripRecord{id: tripID, departures: departures, arrivals: arrivals},
		})
	}

	for _, b := range tripsBuilt {
		if len(b.stopIDs) < 2 {
			continue
		}
		key := fingerprint(b.routeID, b.stopIDs)
		r, ok := tt.routes[key]
		if !ok {
			r = &routeRecord{id: key, stops: b.stopIDs, index: make(map[string]int, len(b.stopIDs))}
			for i, s := range b.stopIDs {
				r.index[s] = i
			}
			tt.routes[key] = r
			for _, s := range b.stopIDs {
				tt.routesBy[s] = append(tt.routesBy[s], key)
			}
		}
		r.trips = append(r.trips, b.trip)
	}

	for _, r := range tt.routes {
		sort.Slice(r.trips, func(i, j int) bool { return r.trips[i].departures[0] < r.trips[j].departures[0] })
	}

	for _, tr := range transfers {
		tt.footpaths[tr.FromStopID] = append(tt.footpaths[tr.FromStopID], raptor.Footpath[string]{
			To:       tr.ToStopID,
			Duration: raptor.Time(tr.MinSeconds),
		})
	}

	return tt, nil
}

func fingerprint(routeID string, stopIDs []string) string {
	return routeID + "|" + strings.Join(stopIDs, ">")
}

func (tt *Timetable) StopsOnRoute(r string) []string {
	route, ok := tt.routes[r]
	if !ok {
		return nil
	}
	return route.stops
}

func (tt *Timetable) IndexOf(r string, p string) (int, bool) {
	route, ok := tt.routes[r]
	if !ok {
		return 0, false
	}
	idx, ok := route.index[p]
	return idx, ok
}

func (tt *Timetable) RoutesThrough(p string) []string {
	return tt.routesBy[p]
}

func (tt *Timetable) EarliestTrip(r string, p string, tMin raptor.Time) (string, bool) {
	route, ok := tt.routes[r]
	if !ok {
		return "", false
	}
	idx, ok := route.index[p]
	if !ok {
		return "", false
	}
	for _, trip := range route.trips {
		if raptor.Time(trip.departures[idx]) >= tMin {
			return trip.id, true
		}
	}
	return "", false
}

func (tt *Timetable) tripAt(trip string, p string, pick func(tripRecord, int) int) (raptor.Time, error) {
	for _, route := range tt.routes {
		idx, ok := route.index[p]
		if !ok {
			continue
		}
		for _, tr := range route.trips {
			if tr.id == trip {
				return raptor.Time(pick(tr, idx)), nil
			}
		}
	}
	return 0, fmt.Errorf("gtfsfeed: trip %q not found at stop %q", trip, p)
}

func (tt *Timetable) Departure(trip string, p string) raptor.Time {
	v, err := tt.tripAt(trip, p, func(tr tripRecord, idx int) int { return tr.departures[idx] })
	if err != nil {
		panic(err)
	}
	return v
}

func (tt *Timetable) Arrival(trip string, p string) raptor.Time {
	v, err := tt.tripAt(trip, p, func(tr tripRecord, idx int) int { return tr.arrivals[idx] })
	if err != nil {
		panic(err)
	}
	return v
}

func (tt *Timetable) FootpathsFrom(p string) []raptor.Footpath[string] {
	return tt.footpaths[p]
}

func (tt *Timetable) LookupStop(externalID string) (string, bool) {
	_, ok := tt.stops[externalID]
	return externalID, ok
}

// StopCoordinate implements the geoexport package's CoordinateLookup
// capability.
func (tt *Timetable) StopCoordinate(s string) (lon, lat float64, ok bool) {
	fs, ok := tt.stops[s]
	return fs.Lon, fs.Lat, ok
}

var _ raptor.Timetable[string, string, string] = (*Timetable)(nil)
