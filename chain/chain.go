package chain

import (
	"sort"

	"github.com/pangenome/sweepga/seqdict"
	"github.com/pangenome/sweepga/sweep"
)

// Chain is one connected component produced by the union-find merge. Only
// components whose query-axis bounding span reaches the minimum scaffold
// length are scaffolds (IsScaffold); the rest are discarded at this stage
// but remain candidates for the rescue step (§4.D).
type Chain struct {
	ID         int // valid only if IsScaffold
	IsScaffold bool

	// Members are indices into the record slice passed to Run, in the
	// order the union-find encountered them.
	Members []int

	// Representative is the synthetic bounding-hull record for this
	// chain: span is the hull of its members, rank is the minimum member
	// rank (§4.D).
	Representative seqdict.Record

	// Score is the sum of each member's score under the configured
	// scoring function, used by the scaffold-level plane sweep.
	Score float64
}

// gapPredicate reports whether s can merge with r, given that r precedes
// s on the query axis (r.QueryStart <= s.QueryStart, ties by rank) and J
// is the scaffold jump threshold (§4.D).
func gapPredicate(r, s *seqdict.Record, J int64) bool {
	if r.Strand != s.Strand {
		return false
	}
	allowedOverlap := J / 5

	gq := s.QueryStart - r.QueryEnd
	if gq < -allowedOverlap || gq > J {
		return false
	}

	var gt int64
	if r.Strand == seqdict.Forward {
		// Monotone increasing: s should lie at or after r on the target
		// axis too.
		gt = s.TargetStart - r.TargetEnd
	} else {
		// Monotone decreasing: s precedes r on the target axis.
		gt = r.TargetStart - s.TargetEnd
	}
	if gt < -allowedOverlap || gt > J {
		return false
	}
	return true
}

// Run merges records at indices (into records) within one chromosome-pair
// bucket into chains, per §4.D. indices need not be pre-sorted; Run sorts
// its own working copy by (query_start, rank) as the spec's input
// contract requires. ids supplies fresh scaffold chain ids, shared across
// every bucket a parallel driver processes concurrently.
func Run(records []seqdict.Record, indices []int, score sweep.Score, J, S int64, ids *IDAllocator) []Chain {
	order := make([]int, len(indices))
	copy(order, indices)
	sort.Slice(order, func(i, j int) bool {
		ri, rj := &records[order[i]], &records[order[j]]
		if ri.QueryStart != rj.QueryStart {
			return ri.QueryStart < rj.QueryStart
		}
		return ri.Rank < rj.Rank
	})

	uf := newUnionFind(len(order))

	// Sliding window of positions (into order) still within reach of a
	// future record's query gap, avoiding an O(n^2) all-pairs scan
	// (§4.D "O(N alpha(N))" complexity target for the merge itself).
	var window []int
	windowHead := 0
	for i, idx := range order {
		r := &records[idx]
		for windowHead < len(window) {
			w := &records[order[window[windowHead]]]
			if w.QueryEnd < r.QueryStart-J {
				windowHead++
				continue
			}
			break
		}
		for _, wi := range window[windowHead:] {
			s := &records[order[wi]]
			if gapPredicate(s, r, J) {
				uf.union(wi, i)
			}
		}
		window = append(window, i)
	}

	components := make(map[int][]int)
	for i := range order {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	// Deterministic output order: by the minimum query_start among each
	// component's members (i.e. by the component's first appearance in
	// sorted order).
	roots := make([]int, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(a, b int) bool {
		return components[roots[a]][0] < components[roots[b]][0]
	})

	chains := make([]Chain, 0, len(roots))
	for _, root := range roots {
		members := components[root]
		sort.Ints(members)

		recIndices := make([]int, len(members))
		for i, m := range members {
			recIndices[i] = order[m]
		}

		rep, chainScore := buildRepresentative(records, recIndices, score)
		querySpan := rep.QueryEnd - rep.QueryStart
		c := Chain{
			Members:        recIndices,
			Representative: rep,
			Score:          chainScore,
			IsScaffold:     querySpan >= S,
		}
		if c.IsScaffold {
			c.ID = ids.Next()
		}
		chains = append(chains, c)
	}
	return chains
}

func buildRepresentative(records []seqdict.Record, memberIndices []int, score sweep.Score) (seqdict.Record, float64) {
	first := &records[memberIndices[0]]
	rep := seqdict.Record{
		QueryID:     first.QueryID,
		TargetID:    first.TargetID,
		Strand:      first.Strand,
		QueryStart:  first.QueryStart,
		QueryEnd:    first.QueryEnd,
		TargetStart: first.TargetStart,
		TargetEnd:   first.TargetEnd,
		Rank:        first.Rank,
		ChainID:     seqdict.NoChain,
	}
	var totalScore float64
	var blockLength int64
	var identitySum float64
	for _, mi := range memberIndices {
		r := &records[mi]
		if r.QueryStart < rep.QueryStart {
			rep.QueryStart = r.QueryStart
		}
		if r.QueryEnd > rep.QueryEnd {
			rep.QueryEnd = r.QueryEnd
		}
		if r.TargetStart < rep.TargetStart {
			rep.TargetStart = r.TargetStart
		}
		if r.TargetEnd > rep.TargetEnd {
			rep.TargetEnd = r.TargetEnd
		}
		if r.Rank < rep.Rank {
			rep.Rank = r.Rank
		}
		totalScore += score(r)
		blockLength += r.BlockLength
		identitySum += r.Identity * float64(r.BlockLength)
	}
	rep.BlockLength = blockLength
	if blockLength > 0 {
		rep.Identity = identitySum / float64(blockLength)
	}
	return rep, totalScore
}
