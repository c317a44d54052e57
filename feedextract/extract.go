// Package feedextract writes a minimal GTFS sub-feed containing only
// the trips a single journey rides.
package feedextract

import (
	"fmt"

	"github.com/patrickbr/gtfsparser"
	"github.com/patrickbr/gtfsparser/gtfs"
	"github.com/patrickbr/gtfswriter"

	"github.com/transitkit/raptor"
)

// Write filters feed down to the trips journey rides (every other trip
// is deleted), drops whatever stops become unreferenced as a result,
// and writes the result to outputPath. tripID converts the engine's
// opaque trip handle back to the GTFS trip_id the feed was built from.
//
// The keep-only-what's-referenced shape mirrors gtfstidy's
// OrphanRemover, run in the opposite direction: instead of dropping
// entities nothing references, everything not ridden by this journey
// is dropped outright, then stops are swept the same way
// OrphanRemover.removeStopOrphans does.
func Write[S comparable, R comparable, T comparable](
	feed *gtfsparser.Feed,
	journey raptor.Journey[S, R, T],
	tripID func(T) string,
	outputPath string,
) error {
	keep := make(map[string]bool, len(journey.Legs))
	for _, leg := range journey.Legs {
		if !leg.Walk {
			keep[tripID(leg.Trip)] = true
		}
	}

	for id := range feed.Trips {
		if !keep[id] {
			feed.DeleteTrip(id)
		}
	}

	removeUnreferencedStops(feed)
	feed.CleanTransfers()

	w := gtfswriter.Writer{ZipCompressionLevel: 9, Sorted: true}
	if err := w.Write(feed, outputPath); err != nil {
		return fmt.Errorf("feedextract: writing %q: %w", outputPath, err)
	}
	return nil
}

func removeUnreferencedStops(feed *gtfsparser.Feed) {
	referenced := make(map[*gtfs.Stop]struct{})
	for _, t := range feed.Trips {
		for _, st := range t.StopTimes {
			s := st.Stop()
			referenced[s] = struct{}{}
			if s.Parent_station != nil {
				referenced[s.Parent_station] = struct{}{}
			}
		}
	}

	for id, s := range feed.Stops {
		if _, ok := referenced[s]; !ok {
			feed.DeleteStop(id)
		}
	}
}
