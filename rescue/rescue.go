package rescue

import (
	"math"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/pangenome/sweepga/group"
	"github.com/pangenome/sweepga/seqdict"
)

// smallBucketThreshold is the anchor count below which a bucket is scanned
// directly instead of paying for a sorted index (§4.E performance note).
const smallBucketThreshold = 32

// anchorKey orders anchors by query center, breaking ties by their
// position in the sorted slice so every anchor is a distinct llrb key even
// when two anchors share a center exactly.
type anchorKey struct {
	center float64
	slot   int
}

func (k anchorKey) Compare(c llrb.Comparable) int {
	o := c.(anchorKey)
	if k.center < o.center {
		return -1
	}
	if k.center > o.center {
		return 1
	}
	return k.slot - o.slot
}

// Rescuer applies the rescue predicate with a fixed distance threshold.
type Rescuer struct {
	D int64
}

// Run classifies every record in records that is not already an anchor:
// Rescued if within D of an anchor center in the same chromosome-pair
// bucket, Filtered otherwise. Anchors (identified by anchors[i] == true)
// are left untouched; callers are expected to have already set their
// Status to seqdict.Scaffold. Run mutates records in place.
func (rc Rescuer) Run(records []seqdict.Record, idx *group.Index, anchors map[int]bool) {
	if rc.D == 0 {
		// D=0: only anchors survive (§4.E).
		for i := range records {
			if !anchors[i] {
				records[i].Status = seqdict.Filtered
			}
		}
		return
	}

	for _, ck := range idx.ChromPairs() {
		bucket := idx.ChromBucket(ck)
		var anchorIdx []int
		for _, i := range bucket {
			if anchors[i] {
				anchorIdx = append(anchorIdx, i)
			}
		}
		if len(anchorIdx) == 0 {
			for _, i := range bucket {
				records[i].Status = seqdict.Filtered
			}
			continue
		}

		window := newAnchorWindow(records, anchorIdx)
		for _, i := range bucket {
			if anchors[i] {
				continue
			}
			if records[i].Status == seqdict.Filtered {
				// Already permanently excluded upstream (e.g. below the
				// min-block-length/min-identity ingest threshold): rescue
				// reconsiders plane-sweep losers, not these.
				continue
			}
			r := &records[i]
			if window.withinDistance(r, rc.D) {
				r.Status = seqdict.Rescued
			} else {
				r.Status = seqdict.Filtered
			}
		}
	}
}

// anchorWindow supports bounded nearest-anchor distance queries for one
// chromosome-pair bucket: a slice of anchors sorted by query center (for
// the windowed scan) and, for larger buckets, an llrb.Tree over the same
// keys so the scan's starting point is found in O(log n) rather than by
// a linear probe (cf. the teacher's by-position shard index,
// encoding/bampair/shard_info.go).
type anchorWindow struct {
	entries []anchorEntry
	tree    *llrb.Tree // nil for small buckets; full scan is cheap enough
}

type anchorEntry struct {
	queryCenter  float64
	targetCenter float64
}

func newAnchorWindow(records []seqdict.Record, anchorIdx []int) *anchorWindow {
	entries := make([]anchorEntry, len(anchorIdx))
	for i, ai := range anchorIdx {
		r := &records[ai]
		entries[i] = anchorEntry{queryCenter: r.QueryCenter(), targetCenter: r.TargetCenter()}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].queryCenter < entries[j].queryCenter })

	w := &anchorWindow{entries: entries}
	if len(entries) >= smallBucketThreshold {
		t := &llrb.Tree{}
		for i, e := range entries {
			t.Insert(anchorKey{center: e.queryCenter, slot: i})
		}
		w.tree = t
	}
	return w
}

// withinDistance reports whether any anchor in the window lies within D of
// r's center, Euclidean, strand-agnostic (§4.E).
func (w *anchorWindow) withinDistance(r *seqdict.Record, D int64) bool {
	qc, tc := r.QueryCenter(), r.TargetCenter()
	d := float64(D)

	if w.tree == nil {
		for _, e := range w.entries {
			if euclid(qc, tc, e.queryCenter, e.targetCenter) <= d {
				return true
			}
		}
		return false
	}

	start := w.seedIndex(qc)
	// Walk outward from the seed in both directions; once an anchor's
	// query center alone is farther than D, nothing further in that
	// direction can be closer (entries are sorted by query center).
	for i := start; i < len(w.entries); i++ {
		e := w.entries[i]
		if e.queryCenter-qc > d {
			break
		}
		if euclid(qc, tc, e.queryCenter, e.targetCenter) <= d {
			return true
		}
	}
	for i := start - 1; i >= 0; i-- {
		e := w.entries[i]
		if qc-e.queryCenter > d {
			break
		}
		if euclid(qc, tc, e.queryCenter, e.targetCenter) <= d {
			return true
		}
	}
	return false
}

// seedIndex locates the window's starting index via the llrb.Tree's Floor
// lookup: the anchor at or immediately before qc in sorted order.
func (w *anchorWindow) seedIndex(qc float64) int {
	floor := w.tree.Floor(anchorKey{center: qc, slot: len(w.entries)})
	if floor == nil {
		return 0
	}
	return floor.(anchorKey).slot
}

func euclid(x1, y1, x2, y2 float64) float64 {
	dx, dy := x1-x2, y1-y2
	return math.Sqrt(dx*dx + dy*dy)
}
