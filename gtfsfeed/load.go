package gtfsfeed

import (
	"fmt"
	"log"
	"time"

	"github.com/patrickbr/gtfsparser"
)

// ParseFeed parses a GTFS feed (a directory or a zip archive) at path
// using gtfsparser, without assembling a Timetable. Callers that need
// the raw feed alongside a Timetable (feedextract, which writes a
// sub-feed of the parsed *gtfsparser.Feed) call this directly and pass
// the result to FromFeed; Load is the convenience wrapper for callers
// that only need the Timetable.
func ParseFeed(path string) (*gtfsparser.Feed, error) {
	log.Printf("gtfsfeed: parsing %s", path)
	start := time.Now()

	feed := gtfsparser.NewFeed()
	if err := feed.Parse(path); err != nil {
		return nil, fmt.Errorf("gtfsfeed: parsing %q: %w", path, err)
	}

	log.Printf("gtfsfeed: parsed %d stops, %d trips in %s", len(feed.Stops), len(feed.Trips), time.Since(start))
	return feed, nil
}

// Load parses a GTFS feed (a directory or a zip archive) at path and
// assembles a Timetable from it. serviceID restricts trips to services
// whose GTFS service_id equals serviceID; pass "" to include every
// trip in the feed regardless of calendar.
func Load(path string, serviceID string) (*Timetable, error) {
	feed, err := ParseFeed(path)
	if err != nil {
		return nil, err
	}
	return FromFeed(feed, serviceID)
}

// FromFeed assembles a Timetable from a feed already parsed by
// ParseFeed. serviceID restricts trips the same way Load's does.
//
// Transfers between a parent station and its child stops/platforms are
// expanded into direct stop-to-stop footpaths, the same expansion the
// teacher's test suite performs by hand against gtfsparser's
// Parent_station field, since transfers.txt may reference the station
// rather than the platform actually visited by a trip.
func FromFeed(feed *gtfsparser.Feed, serviceID string) (*Timetable, error) {
	start := time.Now()
	var stops []FlatStop
	childrenOf := map[string][]string{}
	for _, stop := range feed.Stops {
		stops = append(stops, FlatStop{ID: stop.Id, Lat: stop.Lat, Lon: stop.Lon})
		if stop.Parent_station != nil {
			childrenOf[stop.Parent_station.Id] = append(childrenOf[stop.Parent_station.Id], stop.Id)
		}
	}

	resolve := func(stopID string) []string {
		if children, ok := childrenOf[stopID]; ok {
			return children
		}
		return []string{stopID}
	}

	var transfers []FlatTransfer
	for key, transfer := range feed.Transfers {
		for _, from := range resolve(key.From_stop.Id) {
			for _, to := range resolve(key.To_stop.Id) {
				if from == to {
					continue
				}
				transfers = append(transfers, FlatTransfer{
					FromStopID: from,
					ToStopID:   to,
					MinSeconds: transfer.Min_transfer_time,
				})
			}
		}
	}

	var stopTimes []FlatStopTime
	for _, trip := range feed.Trips {
		if serviceID != "" && trip.Service.Id() != serviceID {
			continue
		}
		routeID := ""
		if trip.Route != nil {
			routeID = trip.Route.Id
		}
		for _, st := range trip.StopTimes {
			stopTimes = append(stopTimes, FlatStopTime{
				StopID:           st.Stop().Id,
				TripID:           trip.Id,
				RouteID:          routeID,
				Sequence:         st.Sequence(),
				ArrivalSeconds:   st.Arrival_time().SecondsSinceMidnight(),
				DepartureSeconds: st.Departure_time().SecondsSinceMidnight(),
			})
		}
	}

	tt, err := BuildTimetable(stops, transfers, stopTimes)
	if err != nil {
		return nil, err
	}
	log.Printf("gtfsfeed: assembled timetable (%d stop-times, %d footpaths) in %s", len(stopTimes), len(transfers), time.Since(start))
	return tt, nil
}
