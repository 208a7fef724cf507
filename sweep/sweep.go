package sweep

import (
	"sort"

	"github.com/pangenome/sweepga/seqdict"
)

// axis identifies which coordinate pair an axisItem was built from.
type axis int

const (
	queryAxis axis = iota
	targetAxis
)

// axisItem is one record's projection onto a single axis for the purpose
// of the 1-D sweep.
type axisItem struct {
	recIdx int // index into the bucket's backing record slice
	start  int64
	end    int64 // normalized: always > start (§4.C zero-length edge case)
	score  float64
	rank   int
}

func buildAxisItems(records []seqdict.Record, indices []int, score Score, ax axis) []axisItem {
	items := make([]axisItem, len(indices))
	for i, recIdx := range indices {
		r := &records[recIdx]
		var start, end int64
		if ax == queryAxis {
			start, end = r.QueryStart, r.QueryEnd
		} else {
			start, end = r.TargetStart, r.TargetEnd
		}
		if end <= start {
			// Zero-length span: treat as a single-point cover (§4.C edge cases).
			end = start + 1
		}
		items[i] = axisItem{
			recIdx: recIdx,
			start:  start,
			end:    end,
			score:  score(r),
			rank:   r.Rank,
		}
	}
	return items
}

func overlapLen(aStart, aEnd, bStart, bEnd int64) int64 {
	s := aStart
	if bStart > s {
		s = bStart
	}
	e := aEnd
	if bEnd < e {
		e = bEnd
	}
	if e <= s {
		return 0
	}
	return e - s
}

// eclipses reports whether hi (strictly higher score) eclipses lo on this
// axis at tolerance tau, per §4.C: overlap-ratio (over lo's span) >= tau,
// except that two intervals with identical bounds never eclipse each
// other regardless of tau. This pair of rules is exactly what makes both
// documented tau=1 edge cases hold simultaneously: identical spans never
// eclipse, but any strict inclusion (ratio == 1, bounds not identical)
// does.
func eclipses(hi, lo axisItem, tau float64) bool {
	if hi.score <= lo.score {
		return false
	}
	if hi.start == lo.start && hi.end == lo.end {
		return false
	}
	ov := overlapLen(hi.start, hi.end, lo.start, lo.end)
	if ov <= 0 {
		return false
	}
	loSpan := lo.end - lo.start
	ratio := float64(ov) / float64(loSpan)
	return ratio >= tau
}

// axisSweep runs the single-axis weighted sweep with a finite cap and
// returns the set of surviving record indices (by recIdx).
func axisSweep(items []axisItem, cap_ int, tau float64) map[int]bool {
	order := make([]axisItem, len(items))
	copy(order, items)
	sort.Slice(order, func(i, j int) bool {
		if order[i].start != order[j].start {
			return order[i].start < order[j].start
		}
		return order[i].rank < order[j].rank
	})

	rejected := make(map[int]bool, len(order))
	active := make([]axisItem, 0, cap_+1)

	for _, item := range order {
		// Evict active records whose span has ended by this item's start.
		kept := active[:0]
		for _, a := range active {
			if a.end > item.start {
				kept = append(kept, a)
			}
		}
		active = kept

		eclipsed := false
		for _, a := range active {
			if eclipses(a, item, tau) {
				eclipsed = true
				break
			}
		}
		if eclipsed {
			rejected[item.recIdx] = true
			continue
		}

		active = append(active, item)
		if len(active) > cap_ {
			sort.Slice(active, func(i, j int) bool {
				if active[i].score != active[j].score {
					return active[i].score > active[j].score
				}
				return active[i].rank < active[j].rank
			})
			for _, a := range active[cap_:] {
				rejected[a.recIdx] = true
			}
			active = active[:cap_]
		}
	}

	survive := make(map[int]bool, len(items)-len(rejected))
	for _, item := range items {
		if !rejected[item.recIdx] {
			survive[item.recIdx] = true
		}
	}
	return survive
}

// Sweep filters the records at indices (into records) per §4.C and
// returns the surviving indices, in the same relative order they appeared
// in indices (§4.C "Order preservation").
func Sweep(records []seqdict.Record, indices []int, score Score, mult Multiplicity, tau float64) []int {
	if mult.M == Unbounded && mult.N == Unbounded {
		out := make([]int, len(indices))
		copy(out, indices)
		return out
	}

	var querySurvive, targetSurvive map[int]bool
	if mult.M == Unbounded {
		querySurvive = nil // nil means "everyone survives this axis"
	} else {
		querySurvive = axisSweep(buildAxisItems(records, indices, score, queryAxis), mult.M, tau)
	}
	if mult.N == Unbounded {
		targetSurvive = nil
	} else {
		targetSurvive = axisSweep(buildAxisItems(records, indices, score, targetAxis), mult.N, tau)
	}

	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if querySurvive != nil && !querySurvive[i] {
			continue
		}
		if targetSurvive != nil && !targetSurvive[i] {
			continue
		}
		out = append(out, i)
	}
	return out
}
