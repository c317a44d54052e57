package raptor

// Query is the core's single entry point (spec.md §6): given a round
// budget kMax, a departure time, an origin and a destination stop
// already known to tt, it returns the Pareto frontier in
// (transfers, arrival time), one Journey per round that improved the
// destination label, in increasing-k order. By construction their
// arrival times are non-increasing.
//
// Query takes validated stop handles, not external identifiers: per
// spec.md §7 the core may "require validated stop handles and treat
// invalid input as undefined" rather than erroring at this layer.
// Callers working from external identifiers (e.g. GTFS stop_ids)
// should use QueryByID instead, which resolves them through
// tt.LookupStop and surfaces ErrUnknownOrigin/ErrUnknownDestination.
//
// All per-query state is created here and discarded on return; tt is
// read-only throughout and may safely be queried concurrently by other
// in-flight calls to Query (spec.md §5).
func Query[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	kMax int,
	depart Time,
	origin, destination S,
	opts Options,
) []Journey[S, R, T] {
	ls := newLabelStore[S, R, T](kMax)
	ls.init(origin, destination, depart)

	runRounds(tt, ls, kMax, opts)

	return journeysForDestination(tt, ls, kMax, ls.destIdx)
}

// QueryByID resolves originID and destinationID through
// tt.LookupStop and runs Query. It is the error-surfacing entry point
// spec.md §7 describes: "origin unknown" and "destination unknown" are
// the only two failure modes the core raises, both only when the
// caller passes identifiers absent from the timetable.
func QueryByID[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	kMax int,
	depart Time,
	originID, destinationID string,
	opts Options,
) ([]Journey[S, R, T], error) {
	origin, ok := tt.LookupStop(originID)
	if !ok {
		return nil, ErrUnknownOrigin
	}
	destination, ok := tt.LookupStop(destinationID)
	if !ok {
		return nil, ErrUnknownDestination
	}
	return Query(tt, kMax, depart, origin, destination, opts), nil
}
