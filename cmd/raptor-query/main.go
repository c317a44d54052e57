// Command raptor-query is the CLI front end over the raptor engine and
// its collaborator packages: load a timetable from a GTFS feed or a
// Postgres/PostGIS schedule store, run single or batched journey
// queries, render a journey as GeoJSON, extract the GTFS sub-feed a
// journey rides, or serve the same operations over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	flag "github.com/spf13/pflag"

	"github.com/transitkit/raptor"
	"github.com/transitkit/raptor/batchquery"
	"github.com/transitkit/raptor/feedextract"
	"github.com/transitkit/raptor/geoexport"
	"github.com/transitkit/raptor/gtfsfeed"
	"github.com/transitkit/raptor/pgtimetable"
	"github.com/transitkit/raptor/raptorhttp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "query":
		err = runQuery(os.Args[2:])
	case "batch":
		err = runBatch(os.Args[2:])
	case "geojson":
		err = runGeoJSON(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "raptor-query - round-based transit routing\n\nUsage:\n\n  %s <query|batch|geojson|extract|serve|migrate> [<options>]\n", os.Args[0])
}

// timetableFlags is shared by every subcommand that needs to load a
// Timetable: either a GTFS feed on disk, or a Postgres/PostGIS
// schedule store.
type timetableFlags struct {
	gtfsPath string
	service  string
	dsn      string
}

func addTimetableFlags(fs *flag.FlagSet) *timetableFlags {
	f := &timetableFlags{}
	fs.StringVarP(&f.gtfsPath, "gtfs", "g", "", "path to a GTFS feed (zip or directory)")
	fs.StringVarP(&f.service, "service", "s", "", "service_id to filter trips by (empty: all services)")
	fs.StringVarP(&f.dsn, "dsn", "d", "", "Postgres DSN for a pgtimetable-backed schedule store")
	return f
}

func (f *timetableFlags) load(ctx context.Context) (*gtfsfeed.Timetable, error) {
	switch {
	case f.dsn != "":
		pool, err := pgxpool.New(ctx, f.dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", f.dsn, err)
		}
		return pgtimetable.NewLoader(pool, 0).Load(ctx, f.service)
	case f.gtfsPath != "":
		return gtfsfeed.Load(f.gtfsPath, f.service)
	default:
		return nil, fmt.Errorf("one of --gtfs or --dsn is required")
	}
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	tf := addTimetableFlags(fs)
	from := fs.StringP("from", "f", "", "origin stop_id")
	to := fs.StringP("to", "t", "", "destination stop_id")
	depart := fs.Int64P("depart", "p", 0, "departure time, seconds since midnight")
	kMax := fs.IntP("kmax", "k", 6, "maximum number of rounds (transfers + 1)")
	fs.Parse(args)

	if *from == "" || *to == "" {
		return fmt.Errorf("--from and --to are required")
	}

	tt, err := tf.load(context.Background())
	if err != nil {
		return err
	}

	journeys, err := raptor.QueryByID(tt, *kMax, raptor.Time(*depart), *from, *to, raptor.Options{})
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(journeys)
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	tf := addTimetableFlags(fs)
	file := fs.StringP("file", "i", "", "path to a JSON file of batch query requests (- for stdin)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	var body []byte
	var err error
	if *file == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", *file, err)
	}

	requests, err := batchquery.Parse(body)
	if err != nil {
		return err
	}

	tt, err := tf.load(context.Background())
	if err != nil {
		return err
	}

	results := make([]any, len(requests))
	for i, req := range requests {
		journeys, err := raptor.QueryByID(tt, req.KMax, raptor.Time(req.Depart), req.Origin, req.Destination, raptor.Options{})
		if err != nil {
			results[i] = map[string]string{"error": err.Error()}
			continue
		}
		results[i] = journeys
	}

	return json.NewEncoder(os.Stdout).Encode(results)
}

func runGeoJSON(args []string) error {
	fs := flag.NewFlagSet("geojson", flag.ExitOnError)
	tf := addTimetableFlags(fs)
	from := fs.StringP("from", "f", "", "origin stop_id")
	to := fs.StringP("to", "t", "", "destination stop_id")
	depart := fs.Int64P("depart", "p", 0, "departure time, seconds since midnight")
	kMax := fs.IntP("kmax", "k", 6, "maximum number of rounds (transfers + 1)")
	fs.Parse(args)

	if *from == "" || *to == "" {
		return fmt.Errorf("--from and --to are required")
	}

	tt, err := tf.load(context.Background())
	if err != nil {
		return err
	}

	journeys, err := raptor.QueryByID(tt, *kMax, raptor.Time(*depart), *from, *to, raptor.Options{})
	if err != nil {
		return err
	}
	if len(journeys) == 0 {
		return fmt.Errorf("no journey found")
	}

	fc, err := geoexport.Journey[string, string, string](tt, journeys[len(journeys)-1])
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(fc)
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	gtfsPath := fs.StringP("gtfs", "g", "", "path to a GTFS feed (zip or directory)")
	service := fs.StringP("service", "s", "", "service_id to filter trips by (empty: all services)")
	from := fs.StringP("from", "f", "", "origin stop_id")
	to := fs.StringP("to", "t", "", "destination stop_id")
	depart := fs.Int64P("depart", "p", 0, "departure time, seconds since midnight")
	kMax := fs.IntP("kmax", "k", 6, "maximum number of rounds (transfers + 1)")
	out := fs.StringP("output", "o", "journey.zip", "output GTFS sub-feed (zip)")
	fs.Parse(args)

	if *gtfsPath == "" || *from == "" || *to == "" {
		return fmt.Errorf("--gtfs, --from and --to are required")
	}

	feed, err := gtfsfeed.ParseFeed(*gtfsPath)
	if err != nil {
		return err
	}
	tt, err := gtfsfeed.FromFeed(feed, *service)
	if err != nil {
		return err
	}

	journeys, err := raptor.QueryByID(tt, *kMax, raptor.Time(*depart), *from, *to, raptor.Options{})
	if err != nil {
		return err
	}
	if len(journeys) == 0 {
		return fmt.Errorf("no journey found")
	}

	return feedextract.Write[string, string, string](feed, journeys[len(journeys)-1], func(t string) string { return t }, *out)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	tf := addTimetableFlags(fs)
	addr := fs.StringP("addr", "a", "", "listen address (default: $PORT, else :8080)")
	origins := fs.StringSliceP("cors-origin", "c", nil, "allowed CORS origin (repeatable); no cross-origin access if omitted")
	fs.Parse(args)

	tt, err := tf.load(context.Background())
	if err != nil {
		return err
	}

	return raptorhttp.Serve(tt, raptorhttp.Config{Addr: *addr, AllowedOrigins: *origins})
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.StringP("dsn", "d", "", "Postgres DSN to migrate")
	fs.Parse(args)

	if *dsn == "" {
		return fmt.Errorf("--dsn is required")
	}
	return pgtimetable.Migrate(*dsn)
}
