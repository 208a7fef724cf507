package pipeline

import (
	"context"
	"testing"

	"github.com/pangenome/sweepga/seqdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSpec struct {
	query, target                 string
	qs, qe, ts, te                int64
	strand                        seqdict.Strand
	identity                      float64
}

func build(dict *seqdict.Dict, specs []recordSpec) []seqdict.Record {
	out := make([]seqdict.Record, len(specs))
	for i, s := range specs {
		out[i] = seqdict.Record{
			Rank:        i,
			QueryID:     dict.Intern(s.query),
			TargetID:    dict.Intern(s.target),
			QueryStart:  s.qs,
			QueryEnd:    s.qe,
			TargetStart: s.ts,
			TargetEnd:   s.te,
			Strand:      s.strand,
			BlockLength: s.qe - s.qs,
			Identity:    s.identity,
			ChainID:     seqdict.NoChain,
		}
	}
	return out
}

// Scenario 1: empty input yields empty output.
func TestScenarioOneEmptyInput(t *testing.T) {
	dict := seqdict.New('#')
	out, err := Run(context.Background(), nil, dict, DefaultConfig)
	require.NoError(t, err)
	assert.Empty(t, Survivors(out))
}

// Scenario 2: two identical overlapping records, scores 10 and 9 (via
// identity difference, default scoring), overlap 100%, tau=0.95,
// pre-filter (1,1), chaining disabled (J=0): only the higher-score record
// survives, status unassigned, no chain id.
func TestScenarioTwoOverlapping(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "b#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 0.85},
	})
	cfg := DefaultConfig
	cfg.J = 0
	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	survivors := Survivors(out)
	require.Len(t, survivors, 1)
	assert.Equal(t, int64(0), survivors[0].QueryStart)
	assert.Equal(t, 1.0, survivors[0].Identity)
	assert.Equal(t, seqdict.Unassigned, survivors[0].Status)
	assert.Equal(t, seqdict.NoChain, survivors[0].ChainID)
}

// Scenario 3: three adjacent records on + strand chain into one scaffold
// (J=2000, S=10000 satisfied by this geometry), all three get the same
// chain id and status scaffold.
func TestScenarioThreeChainsIntoScaffold(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "b#1#chr1", 0, 4000, 0, 4000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 4000, 8000, 5000, 9000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 8000, 12000, 10000, 14000, seqdict.Forward, 1.0},
	})
	cfg := DefaultConfig
	cfg.J = 2000
	cfg.S = 10000
	cfg.PreFilter.M, cfg.PreFilter.N = 0, 0 // unbounded: these three don't overlap, no reason to thin them
	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	survivors := Survivors(out)
	require.Len(t, survivors, 3)
	firstID := survivors[0].ChainID
	assert.NotEqual(t, seqdict.NoChain, firstID)
	for _, r := range survivors {
		assert.Equal(t, firstID, r.ChainID)
		assert.Equal(t, seqdict.Scaffold, r.Status)
	}
}

// Scenario 4: the scaffold of scenario 3 plus a fourth record near it.
// With D=20000 it is rescued; with D=10000 it is dropped.
func TestScenarioFourRescueThresholds(t *testing.T) {
	base := []recordSpec{
		{"a#1#chr1", "b#1#chr1", 0, 4000, 0, 4000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 4000, 8000, 5000, 9000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 8000, 12000, 10000, 14000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 20000, 21000, 22000, 23000, seqdict.Forward, 1.0},
	}
	cfg := DefaultConfig
	cfg.J = 2000
	cfg.S = 10000
	cfg.PreFilter.M, cfg.PreFilter.N = 0, 0

	dictA := seqdict.New('#')
	cfgA := cfg
	cfgA.D = 20000
	outA, err := Run(context.Background(), build(dictA, base), dictA, cfgA)
	require.NoError(t, err)
	survivorsA := Survivors(outA)
	require.Len(t, survivorsA, 4)
	assert.Equal(t, seqdict.Rescued, survivorsA[3].Status)
	assert.Equal(t, seqdict.NoChain, survivorsA[3].ChainID)

	dictB := seqdict.New('#')
	cfgB := cfg
	cfgB.D = 10000
	outB, err := Run(context.Background(), build(dictB, base), dictB, cfgB)
	require.NoError(t, err)
	survivorsB := Survivors(outB)
	require.Len(t, survivorsB, 3)
}

// Scenario 5: two genomes, two chromosomes each, four chromosome-pair
// buckets each produce one non-overlapping scaffold chain. A (1,1)
// scaffold filter applied at chromosome-pair granularity must retain all
// four; a bug that merged genome-pair buckets together would retain only
// one (demonstrating why stage-2 filtering must never cross chromosome
// pairs, per the grouping requirement noted on runFullPipeline).
func TestScenarioFiveGenomePairGrouping(t *testing.T) {
	dict := seqdict.New('#')
	var specs []recordSpec
	chrs := []string{"chr1", "chr2"}
	for _, qc := range chrs {
		for _, tc := range chrs {
			q := "g1#1#" + qc
			tgt := "g2#1#" + tc
			specs = append(specs,
				recordSpec{q, tgt, 0, 6000, 0, 6000, seqdict.Forward, 1.0},
				recordSpec{q, tgt, 6000, 12000, 7000, 13000, seqdict.Forward, 1.0},
			)
		}
	}
	records := build(dict, specs)
	cfg := DefaultConfig
	cfg.J = 2000
	cfg.S = 10000
	cfg.ScaffoldFilter.M, cfg.ScaffoldFilter.N = 1, 1
	cfg.PreFilter.M, cfg.PreFilter.N = 0, 0
	cfg.D = 0 // isolate the scaffold-filter behavior from rescue

	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	survivors := Survivors(out)

	chainIDs := map[int]bool{}
	for _, r := range survivors {
		require.Equal(t, seqdict.Scaffold, r.Status)
		chainIDs[r.ChainID] = true
	}
	assert.Len(t, chainIDs, 4, "each of the four chromosome-pair buckets must keep its own scaffold")
}

// Scenario 6: strand-agnostic rescue. An anchor on + and a non-scaffold
// candidate on - within D (centers ~15811 apart, D=20000) are both
// retained, the candidate as rescued.
func TestScenarioSixStrandAgnosticRescue(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "b#1#chr1", 90000, 110000, 90000, 110000, seqdict.Forward, 1.0}, // anchor spanning S, center (100000, 100000)
		{"a#1#chr1", "b#1#chr1", 114000, 116000, 104000, 106000, seqdict.Reverse, 1.0},
	})
	cfg := DefaultConfig
	cfg.J = 2000
	cfg.S = 10000
	cfg.D = 20000
	cfg.PreFilter.M, cfg.PreFilter.N = 0, 0

	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	survivors := Survivors(out)
	require.Len(t, survivors, 2)
	var sawRescued bool
	for _, r := range survivors {
		if r.Status == seqdict.Rescued {
			sawRescued = true
		}
	}
	assert.True(t, sawRescued)
}

// P6: self-mappings are dropped by default.
func TestSelfMappingExcludedByDefault(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "a#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 1.0},
	})
	out, err := Run(context.Background(), records, dict, DefaultConfig)
	require.NoError(t, err)
	assert.Empty(t, Survivors(out))
}

func TestSelfMappingKeptWhenIncluded(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "a#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 1.0},
	})
	cfg := DefaultConfig
	cfg.J = 0
	cfg.IncludeSelf = true
	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	assert.Len(t, Survivors(out), 1)
}

// P1: idempotence of Run at the pipeline level — feeding the survivors of
// one run back in (with fresh rank) reproduces the same set.
func TestPipelineIdempotence(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "b#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 0.85},
		{"a#1#chr1", "b#1#chr1", 5000, 6000, 5000, 6000, seqdict.Forward, 0.9},
	})
	cfg := DefaultConfig
	cfg.J = 0
	out1, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	once := Survivors(out1)

	dict2 := seqdict.New('#')
	reinterned := make([]seqdict.Record, len(once))
	for i, r := range once {
		reinterned[i] = r
		reinterned[i].Rank = i
		reinterned[i].QueryID = dict2.Intern(dict.Name(r.QueryID))
		reinterned[i].TargetID = dict2.Intern(dict.Name(r.TargetID))
	}
	out2, err := Run(context.Background(), reinterned, dict2, cfg)
	require.NoError(t, err)
	twice := Survivors(out2)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.Equal(t, once[i].QueryStart, twice[i].QueryStart)
		assert.Equal(t, once[i].Identity, twice[i].Identity)
	}
}

// P2: survivors come back in ascending rank order.
func TestOrderPreservationAcrossPipeline(t *testing.T) {
	dict := seqdict.New('#')
	records := build(dict, []recordSpec{
		{"a#1#chr1", "b#1#chr1", 0, 1000, 0, 1000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 5000, 6000, 5000, 6000, seqdict.Forward, 1.0},
		{"a#1#chr1", "b#1#chr1", 10000, 11000, 10000, 11000, seqdict.Forward, 1.0},
	})
	cfg := DefaultConfig
	cfg.J = 0
	cfg.PreFilter.M, cfg.PreFilter.N = 0, 0
	out, err := Run(context.Background(), records, dict, cfg)
	require.NoError(t, err)
	survivors := Survivors(out)
	for i := 1; i < len(survivors); i++ {
		assert.Less(t, survivors[i-1].Rank, survivors[i].Rank)
	}
}
