package raptor

// Options configures a Query beyond the four parameters spec.md §6
// names explicitly.
type Options struct {
	// FixpointFootpaths makes the footpath relaxer iterate to a
	// fixpoint within each round instead of taking a single pass.
	// Only needed when the Timetable cannot guarantee its footpath
	// set is transitively closed (spec.md §4.4, §9 Open questions).
	FixpointFootpaths bool
}

// runRounds executes the per-round driver of spec.md §4.5: for
// k = 1..kMax, carry the previous round's labels, build the route
// queue from the stops marked in round k-1, scan each candidate route,
// relax footpaths, and stop early once a round marks nothing.
func runRounds[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	ls *labelStore[S, R, T],
	kMax int,
	opts Options,
) {
	for k := 1; k <= kMax; k++ {
		ls.carry(k)

		prevMarked := ls.marked
		ls.marked = make(map[int]bool)

		q := buildRouteQueue(tt, prevMarked, ls)
		for r, board := range q.board {
			scanRoute(tt, ls, k, r, board)
		}

		relaxFootpaths(tt, ls, k, prevMarked, opts.FixpointFootpaths)

		if len(ls.marked) == 0 {
			break
		}
	}
}
