package sweep

import (
	"fmt"
	"math"

	"github.com/pangenome/sweepga/seqdict"
)

// Score is a pure, deterministic scoring function over a record. Ties
// between equal scores are broken elsewhere, by ascending Rank (§4.C).
type Score func(r *seqdict.Record) float64

// ScoreLog1pLengthIdentity is the default scoring function:
// log(1 + block_length) * identity.
func ScoreLog1pLengthIdentity(r *seqdict.Record) float64 {
	return math.Log1p(float64(r.BlockLength)) * r.Identity
}

// ScoreIdentity scores by identity alone.
func ScoreIdentity(r *seqdict.Record) float64 {
	return r.Identity
}

// ScoreBlockLength scores by block length alone.
func ScoreBlockLength(r *seqdict.Record) float64 {
	return float64(r.BlockLength)
}

// ScoreBlockLengthIdentity scores by block_length * identity.
func ScoreBlockLengthIdentity(r *seqdict.Record) float64 {
	return float64(r.BlockLength) * r.Identity
}

// ScoreMatches scores by the estimated number of matching bases,
// round(identity * block_length), the same matches formula the binary
// adapter uses for its tracepoint-derived identity (spec.md Glossary).
// Record does not carry a raw match count of its own, since that would
// duplicate information already implied by Identity and BlockLength.
func ScoreMatches(r *seqdict.Record) float64 {
	return math.Round(r.Identity * float64(r.BlockLength))
}

// Named returns the Score implementation for one of the five recognized
// configuration names: "log1p_length_identity" (default), "identity",
// "block_length", "block_length_identity", "matches".
func Named(name string) (Score, error) {
	switch name {
	case "", "log1p_length_identity":
		return ScoreLog1pLengthIdentity, nil
	case "identity":
		return ScoreIdentity, nil
	case "block_length":
		return ScoreBlockLength, nil
	case "block_length_identity":
		return ScoreBlockLengthIdentity, nil
	case "matches":
		return ScoreMatches, nil
	default:
		return nil, fmt.Errorf("sweep: unrecognized scoring function %q", name)
	}
}
