package pgtimetable

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitkit/raptor/gtfsfeed"
)

// defaultTransferRadiusMeters matches the proximity radius
// KhalidEchchahid-transit-app's loader uses for PostGIS-derived
// walking transfers.
const defaultTransferRadiusMeters = 300

// Loader builds a gtfsfeed.Timetable from a schedule database. It
// reuses gtfsfeed.BuildTimetable for route grouping and trip sorting
// rather than re-implementing the RAPTOR Timetable itself — the
// in-memory representation is identical regardless of where the flat
// records came from.
type Loader struct {
	pool           *pgxpool.Pool
	transferRadius float64
}

// NewLoader builds a Loader against pool. transferRadiusMeters governs
// the proximity-transfer fallback (see loadTransfers); pass <= 0 for
// the default of 300m.
func NewLoader(pool *pgxpool.Pool, transferRadiusMeters float64) *Loader {
	if transferRadiusMeters <= 0 {
		transferRadiusMeters = defaultTransferRadiusMeters
	}
	return &Loader{pool: pool, transferRadius: transferRadiusMeters}
}

// Load reads the whole schedule database and assembles a Timetable.
// serviceID restricts trips to those whose service_id column equals
// serviceID, the same day-type filter gtfsfeed.Load applies to a GTFS
// feed's calendar; pass "" to include every trip regardless of day.
func (l *Loader) Load(ctx context.Context, serviceID string) (*gtfsfeed.Timetable, error) {
	log.Println("pgtimetable: loading schedule from database...")
	start := time.Now()

	stops, err := l.loadStops(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("pgtimetable: loaded %d stops", len(stops))

	stopTimes, err := l.loadStopTimes(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	log.Printf("pgtimetable: loaded %d stop times", len(stopTimes))

	transfers, err := l.loadTransfers(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("pgtimetable: loaded %d transfers", len(transfers))

	tt, err := gtfsfeed.BuildTimetable(stops, transfers, stopTimes)
	if err != nil {
		return nil, err
	}
	log.Printf("pgtimetable: schedule load complete in %s", time.Since(start))
	return tt, nil
}

func (l *Loader) loadStops(ctx context.Context) ([]gtfsfeed.FlatStop, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, lon, lat FROM stops`)
	if err != nil {
		return nil, fmt.Errorf("pgtimetable: loading stops: %w", err)
	}
	defer rows.Close()

	var stops []gtfsfeed.FlatStop
	for rows.Next() {
		var s gtfsfeed.FlatStop
		if err := rows.Scan(&s.ID, &s.Lon, &s.Lat); err != nil {
			return nil, fmt.Errorf("pgtimetable: scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// loadStopTimes joins stop_times to trips to pick up each trip's
// route_id and, when serviceID is non-empty, to filter to that one
// service/calendar variant — the Postgres equivalent of gtfsfeed's
// `trip.Service.Id() != serviceID` skip, needed here for the same
// reason: BuildTimetable groups trips into routes by route id and stop
// sequence only, never by service, so a weekday and a Saturday trip on
// the same pattern must never reach it side by side.
func (l *Loader) loadStopTimes(ctx context.Context, serviceID string) ([]gtfsfeed.FlatStopTime, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT st.stop_id, st.trip_id, t.route_id, st.seq, st.arrival_seconds, st.departure_seconds
		FROM stop_times st
		JOIN trips t ON t.id = st.trip_id
		WHERE $1 = '' OR t.service_id = $1
		ORDER BY st.trip_id, st.seq
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("pgtimetable: loading stop times: %w", err)
	}
	defer rows.Close()

	var stopTimes []gtfsfeed.FlatStopTime
	for rows.Next() {
		var st gtfsfeed.FlatStopTime
		if err := rows.Scan(&st.StopID, &st.TripID, &st.RouteID, &st.Sequence, &st.ArrivalSeconds, &st.DepartureSeconds); err != nil {
			return nil, fmt.Errorf("pgtimetable: scanning stop time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}
	return stopTimes, rows.Err()
}

// loadTransfers prefers explicitly configured rows in the transfers
// table; if none exist it falls back to deriving walking transfers
// from stop proximity via PostGIS, the way
// KhalidEchchahid-transit-app's loader.go does (ST_DWithin within
// transferRadius, 1 m/s walking speed).
func (l *Loader) loadTransfers(ctx context.Context) ([]gtfsfeed.FlatTransfer, error) {
	rows, err := l.pool.Query(ctx, `SELECT from_stop_id, to_stop_id, duration_seconds FROM transfers`)
	if err != nil {
		return nil, fmt.Errorf("pgtimetable: loading transfers: %w", err)
	}
	var transfers []gtfsfeed.FlatTransfer
	for rows.Next() {
		var tr gtfsfeed.FlatTransfer
		if err := rows.Scan(&tr.FromStopID, &tr.ToStopID, &tr.MinSeconds); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pgtimetable: scanning transfer: %w", err)
		}
		transfers = append(transfers, tr)
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return nil, rowsErr
	}
	if len(transfers) > 0 {
		return transfers, nil
	}

	proximityRows, err := l.pool.Query(ctx, `
		SELECT s1.id, s2.id, ST_Distance(s1.location, s2.location)
		FROM stops s1
		JOIN stops s2 ON ST_DWithin(s1.location, s2.location, $1)
		WHERE s1.id != s2.id
	`, l.transferRadius)
	if err != nil {
		return nil, fmt.Errorf("pgtimetable: generating proximity transfers: %w", err)
	}
	defer proximityRows.Close()

	for proximityRows.Next() {
		var from, to string
		var meters float64
		if err := proximityRows.Scan(&from, &to, &meters); err != nil {
			return nil, fmt.Errorf("pgtimetable: scanning proximity transfer: %w", err)
		}
		transfers = append(transfers, gtfsfeed.FlatTransfer{
			FromStopID: from,
			ToStopID:   to,
			MinSeconds: int(meters),
		})
	}
	return transfers, proximityRows.Err()
}
