package raptor

// scanRoute implements the route scanner of spec.md §4.3 for one
// (r, boardStop) pair: walk r's stop sequence from boardStop onward,
// maintaining the earliest catchable current trip, updating labels at
// downstream stops and switching to an earlier trip whenever the
// previous round's label at a stop permits boarding one.
func scanRoute[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	ls *labelStore[S, R, T],
	k int,
	r R,
	boardStop S,
) {
	stops := tt.StopsOnRoute(r)
	startIdx, ok := tt.IndexOf(r, boardStop)
	if !ok {
		return
	}

	var currentTrip T
	haveTrip := false
	var hopOnStop S

	it := NewSliceIterator(stops[startIdx:], false)
	for it.HasNext() {
		p := it.Next()
		pIdx := ls.ensure(p)

		// Step 1: can the current trip improve the label here? Target
		// pruning (t_arrive >= τ*(destination)) and local pruning
		// (t_arrive >= τ*(p)) are both enforced inside relaxTransit,
		// which is a no-op when neither bound improves.
		if haveTrip {
			tArrive := tt.Arrival(currentTrip, p)
			ls.relaxTransit(k, pIdx, tArrive, r, currentTrip, hopOnStop)
		}

		// Step 2: can we board an earlier trip at p using the
		// previous round's label? The comparison is <= so ties
		// resolve toward the earlier (and therefore possibly
		// swappable) trip. Using τ_{k-1}(p) rather than τ_k(p) keeps
		// boarding restricted to stops reached by round k-1, never to
		// a stop only reached within round k itself (spec.md §3,
		// Boarded-at-marked-stop).
		prevArrival := ls.arrival[k-1][pIdx]
		if prevArrival >= Unreachable {
			continue
		}
		if !haveTrip || prevArrival <= tt.Departure(currentTrip, p) {
			if trip, found := tt.EarliestTrip(r, p, prevArrival); found {
				if !haveTrip || trip != currentTrip {
					currentTrip = trip
					haveTrip = true
					hopOnStop = p
				}
			}
		}
	}
}
