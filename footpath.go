package raptor

// relaxFootpaths implements the footpath relaxer of spec.md §4.4: for
// every stop p improved so far this round (by the route scan or by an
// earlier footpath pass), apply every outgoing footpath (p, p', ℓ) and
// tighten τ_k(p') and τ*(p') accordingly.
//
// The footpath set is assumed transitively closed by the Timetable
// (the standard RAPTOR precondition, spec.md §4.4), so one pass over
// the current marks suffices; fixpoint iterates to a fixpoint instead,
// for Timetables that cannot guarantee closure.
// prevMarked is M_{k-1}: spec.md §4.4 relaxes footpaths from
// (M_k so far ∪ M_{k−1}), not just the stops the route scan of round
// k itself improved. Re-relaxing from M_{k-1} is a no-op whenever
// round k carried that stop's label unchanged (relaxFootpath is
// idempotent and guarded), but keeps the implementation literal
// against the spec rather than relying on that being true for every
// Timetable.
func relaxFootpaths[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	ls *labelStore[S, R, T],
	k int,
	prevMarked map[int]bool,
	fixpoint bool,
) {
	seed := make(map[int]bool, len(ls.marked)+len(prevMarked))
	for idx := range ls.marked {
		seed[idx] = true
	}
	for idx := range prevMarked {
		seed[idx] = true
	}
	frontier := make([]int, 0, len(seed))
	for idx := range seed {
		frontier = append(frontier, idx)
	}

	for len(frontier) > 0 {
		next := make([]int, 0)
		seenNext := make(map[int]bool)

		for _, pIdx := range frontier {
			p := ls.stops[pIdx]
			tP := ls.arrival[k][pIdx]
			if tP >= Unreachable {
				continue
			}
			for _, fp := range tt.FootpathsFrom(p) {
				qIdx := ls.ensure(fp.To)
				tArrive := tP.Add(fp.Duration)
				if ls.relaxFootpath(k, qIdx, tArrive, p) {
					if !seenNext[qIdx] {
						seenNext[qIdx] = true
						next = append(next, qIdx)
					}
				}
			}
		}

		if !fixpoint {
			return
		}
		frontier = next
	}
}
