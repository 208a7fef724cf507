package sweep

import (
	"testing"

	"github.com/pangenome/sweepga/seqdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRecord(rank int, qs, qe, ts, te int64, identity float64) seqdict.Record {
	return seqdict.Record{
		Rank:        rank,
		QueryStart:  qs,
		QueryEnd:    qe,
		TargetStart: ts,
		TargetEnd:   te,
		Strand:      seqdict.Forward,
		BlockLength: qe - qs,
		Identity:    identity,
		ChainID:     seqdict.NoChain,
	}
}

// Scenario 2 of spec.md §8: two identical overlapping records, scores 10
// and 9, 100% overlap, tau=0.95, pre-filter (1,1): only the higher-score
// record survives.
func TestScenarioTwoOverlapping(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 1000, 0, 1000, 1.0),  // score ~ log1p(1000)*1.0
		mkRecord(1, 0, 1000, 0, 1000, 0.85), // deliberately lower score
	}
	survivors := Sweep(records, []int{0, 1}, ScoreLog1pLengthIdentity, Multiplicity{M: 1, N: 1}, 0.95)
	require.Len(t, survivors, 1)
	assert.Equal(t, 0, survivors[0])
}

func TestOrderPreservation(t *testing.T) {
	// Three non-overlapping records on the query axis but sharing the
	// target axis region so the target-axis cap of 2 forces a choice;
	// survivors must come back in original bucket order (0, 2), not score
	// order (2, 0).
	records := []seqdict.Record{
		mkRecord(0, 0, 100, 0, 100, 0.80),
		mkRecord(1, 200, 300, 0, 100, 0.50),
		mkRecord(2, 400, 500, 0, 100, 0.99),
	}
	survivors := Sweep(records, []int{0, 1, 2}, ScoreIdentity, Multiplicity{M: Unbounded, N: 2}, 0.95)
	require.Len(t, survivors, 2)
	assert.Equal(t, []int{0, 2}, survivors)
}

func TestBothUnboundedReturnsAll(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 100, 0, 100, 0.5),
		mkRecord(1, 0, 100, 0, 100, 0.9),
	}
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: Unbounded, N: Unbounded}, 0.95)
	assert.Equal(t, []int{0, 1}, survivors)
}

// P3: increasing a cap can only enlarge the survivor set.
func TestMonotonicityInCaps(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 100, 0, 100, 0.95),
		mkRecord(1, 10, 110, 0, 100, 0.80),
		mkRecord(2, 20, 120, 0, 100, 0.70),
	}
	idx := []int{0, 1, 2}
	small := Sweep(records, idx, ScoreIdentity, Multiplicity{M: 1, N: Unbounded}, 0.0)
	large := Sweep(records, idx, ScoreIdentity, Multiplicity{M: 2, N: Unbounded}, 0.0)

	smallSet := map[int]bool{}
	for _, i := range small {
		smallSet[i] = true
	}
	for _, i := range small {
		assert.Contains(t, large, i)
	}
	assert.True(t, len(large) >= len(small))
}

// P8: no two cap-1 survivors may overlap beyond tau on the weaker one.
func TestEclipsingCapOne(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 1000, 0, 1000, 1.0),
		mkRecord(1, 500, 1500, 0, 1000, 0.99),
	}
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: 1, N: Unbounded}, 0.3)
	// 50% overlap of record 1's span exceeds tau=0.3, so it is eclipsed.
	require.Len(t, survivors, 1)
	assert.Equal(t, 0, survivors[0])
}

func TestTauOneIdenticalSpansSurviveBoth(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 1000, 0, 1000, 1.0),
		mkRecord(1, 0, 1000, 0, 1000, 0.5),
	}
	// Cap of 2 on the target axis is generous enough that only the
	// eclipse predicate (not the cap) could reject a survivor here; with
	// identical spans it must not.
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: Unbounded, N: 2}, 1.0)
	assert.Equal(t, []int{0, 1}, survivors)
}

func TestTauOneStrictInclusionEclipses(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 1000, 0, 1000, 1.0),  // contains record 1 entirely on the query axis
		mkRecord(1, 100, 900, 2000, 3000, 0.5),
	}
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: 1, N: Unbounded}, 1.0)
	require.Len(t, survivors, 1)
	assert.Equal(t, 0, survivors[0])
}

func TestTauZeroAnyTouchingEclipses(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 100, 0, 100, 1.0),
		mkRecord(1, 99, 199, 0, 100, 0.9), // touches by 1 base on the query axis
	}
	// Cap of 2 on the query axis leaves only the eclipse predicate able to
	// reject record 1.
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: 2, N: Unbounded}, 0.0)
	require.Len(t, survivors, 1)
	assert.Equal(t, 0, survivors[0])
}

func TestZeroLengthSpanTreatedAsSinglePoint(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 10, 10, 0, 100, 1.0), // zero-length query span
		mkRecord(1, 10, 20, 0, 100, 0.9),
	}
	// Should not panic (division by zero) and should still produce a
	// deterministic eclipse decision.
	survivors := Sweep(records, []int{0, 1}, ScoreIdentity, Multiplicity{M: Unbounded, N: 1}, 0.5)
	require.NotEmpty(t, survivors)
}

func TestIdempotence(t *testing.T) {
	records := []seqdict.Record{
		mkRecord(0, 0, 1000, 0, 1000, 1.0),
		mkRecord(1, 500, 1500, 2000, 3000, 0.9),
		mkRecord(2, 2000, 2500, 4000, 4500, 0.7),
	}
	idx := []int{0, 1, 2}
	once := Sweep(records, idx, ScoreLog1pLengthIdentity, Multiplicity{M: 1, N: 1}, 0.95)
	twice := Sweep(records, once, ScoreLog1pLengthIdentity, Multiplicity{M: 1, N: 1}, 0.95)
	assert.Equal(t, once, twice)
}

func TestParseMultiplicity(t *testing.T) {
	cases := []struct {
		in   string
		want Multiplicity
	}{
		{"1:1", Multiplicity{1, 1}},
		{"1:inf", Multiplicity{1, Unbounded}},
		{"1:∞", Multiplicity{1, Unbounded}},
		{"1:unbounded", Multiplicity{1, Unbounded}},
		{"inf:1", Multiplicity{Unbounded, 1}},
		{"unbounded:unbounded", Multiplicity{Unbounded, Unbounded}},
		{"3:4", Multiplicity{3, 4}},
	}
	for _, c := range cases {
		got, err := ParseMultiplicity(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ParseMultiplicity("many:1")
	assert.Error(t, err)
	_, err = ParseMultiplicity("0:1")
	assert.Error(t, err)
	_, err = ParseMultiplicity("garbage")
	assert.Error(t, err)
}

func TestScoreNamed(t *testing.T) {
	_, err := Named("identity")
	require.NoError(t, err)
	_, err = Named("")
	require.NoError(t, err)
	_, err = Named("nonsense")
	assert.Error(t, err)
}
