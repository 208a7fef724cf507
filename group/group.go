package group

import (
	"github.com/pangenome/sweepga/seqdict"
)

// ChromPairKey is the grouping key used for plane sweep #1 and for the
// rescue stage's per-chromosome-pair anchor buckets.
type ChromPairKey struct {
	QueryID, TargetID seqdict.ID
}

// GenomePairKey is the grouping key used as the outer partition for the
// scaffold-level plane sweep, so that 1:1 scaffold filtering is decided
// per chromosome pair within a genome pair, not globally across the
// genome pair (§4.B, §9 "previous design" note).
type GenomePairKey struct {
	QueryPrefix, TargetPrefix string
}

// Index partitions a fixed slice of records into chromosome-pair and
// genome-pair buckets. It is built once per input set and is read-only
// thereafter (§5). Buckets preserve the input order of their members.
type Index struct {
	chromOrder   []ChromPairKey
	chromBuckets map[ChromPairKey][]int

	genomeOrder   []GenomePairKey
	genomeMembers map[GenomePairKey][]ChromPairKey
	seenGenome    map[GenomePairKey]bool
	seenChromIn   map[ChromPairKey]GenomePairKey
}

// Build indexes records (by position in that slice) against dict, which
// must already contain every QueryID/TargetID referenced by records.
func Build(records []seqdict.Record, dict *seqdict.Dict) *Index {
	idx := &Index{
		chromBuckets:  make(map[ChromPairKey][]int),
		genomeMembers: make(map[GenomePairKey][]ChromPairKey),
		seenGenome:    make(map[GenomePairKey]bool),
		seenChromIn:   make(map[ChromPairKey]GenomePairKey),
	}
	for i := range records {
		r := &records[i]
		ck := ChromPairKey{QueryID: r.QueryID, TargetID: r.TargetID}
		if _, ok := idx.chromBuckets[ck]; !ok {
			idx.chromOrder = append(idx.chromOrder, ck)

			gk := GenomePairKey{
				QueryPrefix:  dict.PrefixID(r.QueryID),
				TargetPrefix: dict.PrefixID(r.TargetID),
			}
			idx.seenChromIn[ck] = gk
			if !idx.seenGenome[gk] {
				idx.seenGenome[gk] = true
				idx.genomeOrder = append(idx.genomeOrder, gk)
			}
			idx.genomeMembers[gk] = append(idx.genomeMembers[gk], ck)
		}
		idx.chromBuckets[ck] = append(idx.chromBuckets[ck], i)
	}
	return idx
}

// ChromPairs returns every chromosome-pair key present in the input, in
// first-seen order.
func (idx *Index) ChromPairs() []ChromPairKey {
	return idx.chromOrder
}

// ChromBucket returns the record indices belonging to key, in input
// order. The returned slice is borrowed; callers must not mutate it.
func (idx *Index) ChromBucket(key ChromPairKey) []int {
	return idx.chromBuckets[key]
}

// GenomePairs returns every genome-pair key present in the input, in
// first-seen order.
func (idx *Index) GenomePairs() []GenomePairKey {
	return idx.genomeOrder
}

// ChromPairsInGenomePair returns the chromosome-pair keys belonging to
// gk, in first-seen order.
func (idx *Index) ChromPairsInGenomePair(gk GenomePairKey) []ChromPairKey {
	return idx.genomeMembers[gk]
}

// GenomePairOf returns the genome-pair key a chromosome-pair belongs to.
func (idx *Index) GenomePairOf(ck ChromPairKey) GenomePairKey {
	return idx.seenChromIn[ck]
}
