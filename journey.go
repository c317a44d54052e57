package raptor

// reconstruct implements the journey reconstructor of spec.md §4.6 for
// round k: starting at (k, destination), follow footpath predecessors
// within round k to the stop where the last transit leg alighted,
// then follow the transit parent back to (k-1, boardStop), and repeat
// until the origin is reached. The legs are collected walking
// backward and then replayed through a reverse SliceIterator to emit
// them in chronological order.
func reconstruct[S comparable, R comparable, T comparable](
	ls *labelStore[S, R, T],
	tt Timetable[S, R, T],
	k int,
	destIdx int,
) []Leg[S, R, T] {
	type pending = Leg[S, R, T]
	var reverseLegs []pending

	round := k
	stopIdx := destIdx

	for {
		rec := ls.parent[round][stopIdx]
		switch rec.kind {
		case parentNone:
			// This label was carried unchanged from an earlier round
			// (carry() copies arrival values but a parent record is
			// only written the round a label actually improves);
			// keep walking back through rounds until we find the one
			// that actually produced it.
			if round == 0 {
				return nil
			}
			round--
		case parentOrigin:
			legs := make([]pending, 0, len(reverseLegs))
			it := NewSliceIterator(reverseLegs, true)
			for it.HasNext() {
				legs = append(legs, it.Next())
			}
			return legs
		case parentFootpath:
			viaIdx, _ := ls.indexOf(rec.via)
			reverseLegs = append(reverseLegs, pending{
				Board:    rec.via,
				Alight:   ls.stops[stopIdx],
				Walk:     true,
				Depart:   ls.arrival[round][viaIdx],
				Arrive:   ls.arrival[round][stopIdx],
				WalkTime: ls.arrival[round][stopIdx] - ls.arrival[round][viaIdx],
			})
			stopIdx = viaIdx
			// stays within the same round: footpaths relax after the
			// transit stage of the same k.
		case parentTrip:
			boardIdx, _ := ls.indexOf(rec.board)
			reverseLegs = append(reverseLegs, pending{
				Board:  rec.board,
				Alight: ls.stops[stopIdx],
				Walk:   false,
				Route:  rec.route,
				Trip:   rec.trip,
				Depart: tt.Departure(rec.trip, rec.board),
				Arrive: ls.arrival[round][stopIdx],
			})
			stopIdx = boardIdx
			round--
		default:
			// Should not happen for any stop reachable within k
			// rounds; bail out defensively rather than loop forever.
			return nil
		}
	}
}

// journeysForDestination produces one Journey per round in
// [1, kMax] whose label at destination strictly improved over the
// previous round (spec.md §4.6), in increasing-k order. Round 0 is
// included only for the trivial origin == destination case
// (kMax == 0, spec.md §6).
func journeysForDestination[S comparable, R comparable, T comparable](
	tt Timetable[S, R, T],
	ls *labelStore[S, R, T],
	kMax int,
	destIdx int,
) []Journey[S, R, T] {
	var journeys []Journey[S, R, T]

	if ls.arrival[0][destIdx] < Unreachable && ls.parent[0][destIdx].kind == parentOrigin {
		journeys = append(journeys, Journey[S, R, T]{
			Legs:      nil,
			Arrival:   ls.arrival[0][destIdx],
			Transfers: 0,
		})
	}

	for k := 1; k <= kMax; k++ {
		improved := ls.arrival[k][destIdx] < ls.arrival[k-1][destIdx]
		if !improved {
			continue
		}
		legs := reconstruct(ls, tt, k, destIdx)
		trips := 0
		for _, leg := range legs {
			if !leg.Walk {
				trips++
			}
		}
		transfers := trips - 1
		if transfers < 0 {
			transfers = 0
		}
		journeys = append(journeys, Journey[S, R, T]{
			Legs:      legs,
			Arrival:   ls.arrival[k][destIdx],
			Transfers: transfers,
		})
	}

	return journeys
}
