// Package geoexport renders a raptor.Journey as GeoJSON for map
// clients.
package geoexport

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/transitkit/raptor"
)

// CoordinateLookup is implemented by any Timetable that can resolve a
// stop handle to WGS84 coordinates (gtfsfeed.Timetable and
// pgtimetable-backed timetables both do).
type CoordinateLookup[S comparable] interface {
	StopCoordinate(s S) (lon, lat float64, ok bool)
}

// Journey renders one journey as a GeoJSON FeatureCollection: one
// LineString feature per leg, carrying enough properties (walk, the
// route/trip identifiers, depart/arrive seconds) for a map client to
// style transit legs differently from walking legs.
func Journey[S comparable, R comparable, T comparable](
	lookup CoordinateLookup[S],
	journey raptor.Journey[S, R, T],
) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for i, leg := range journey.Legs {
		fromLon, fromLat, ok := lookup.StopCoordinate(leg.Board)
		if !ok {
			return nil, fmt.Errorf("geoexport: no coordinates for stop %v", leg.Board)
		}
		toLon, toLat, ok := lookup.StopCoordinate(leg.Alight)
		if !ok {
			return nil, fmt.Errorf("geoexport: no coordinates for stop %v", leg.Alight)
		}

		feature := geojson.NewLineStringFeature([][]float64{
			{fromLon, fromLat},
			{toLon, toLat},
		})
		feature.SetProperty("legIndex", i)
		feature.SetProperty("walk", leg.Walk)
		feature.SetProperty("departSeconds", int64(leg.Depart))
		feature.SetProperty("arriveSeconds", int64(leg.Arrive))
		if !leg.Walk {
			feature.SetProperty("route", fmt.Sprintf("%v", leg.Route))
			feature.SetProperty("trip", fmt.Sprintf("%v", leg.Trip))
		}
		fc.AddFeature(feature)
	}

	return fc, nil
}
