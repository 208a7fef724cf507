package pipeline

import "github.com/pangenome/sweepga/sweep"

// Config holds every recognized option of the configuration surface
// (§6.3), defaulted per §4.F.
type Config struct {
	// PreFilter is the multiplicity pair for plane sweep #1, applied at
	// chromosome-pair granularity.
	PreFilter sweep.Multiplicity
	// ScaffoldFilter is the multiplicity pair for plane sweep #2, applied
	// at chromosome-pair granularity within genome-pair groups.
	ScaffoldFilter sweep.Multiplicity
	// Tau is the eclipsing overlap-ratio tolerance, shared by both sweeps.
	Tau float64
	// Score names one of the five recognized scoring functions; "" means
	// the default (sweep.ScoreLog1pLengthIdentity).
	Score string

	// J is the chainer's gap threshold; J=0 disables chaining entirely
	// (§4.D "Disabled mode").
	J int64
	// S is the minimum scaffold span a chain's bounding hull must reach
	// to be promoted to a scaffold.
	S int64
	// D is the rescue radius; D=0 means only anchors survive.
	D int64

	// MinBlockLength and MinIdentity drop ingested records below
	// threshold before stage 1.
	MinBlockLength int64
	MinIdentity    float64

	// IncludeSelf keeps same-(query_id, target_id) records that would
	// otherwise be dropped per §4.F.
	IncludeSelf bool

	// PrefixDelimiter is the character used to derive a genome prefix
	// from a sequence name (§3).
	PrefixDelimiter byte

	// LenientIngest, when true, skips and counts malformed input records
	// instead of aborting (§7).
	LenientIngest bool

	// ScratchCompress, when true, writes a Snappy-compressed scratch
	// checkpoint of the ingested records to a temp file before bucket
	// processing (§6.3), whatever the input size; when false no
	// checkpoint is written. Default off, since in-memory processing is
	// sufficient for the documented record budget.
	ScratchCompress bool

	// Parallelism bounds the worker pool size used to process
	// chromosome-pair buckets; 0 means runtime.GOMAXPROCS(0).
	Parallelism int
}

// DefaultConfig mirrors spec.md §4.F's defaults, in the style of the
// teacher's DefaultOpts values (fusion/opts.go).
var DefaultConfig = Config{
	PreFilter:       sweep.Multiplicity{M: 1, N: 1},
	ScaffoldFilter:  sweep.Multiplicity{M: sweep.Unbounded, N: sweep.Unbounded},
	Tau:             0.95,
	Score:           "",
	J:               10000,
	S:               10000,
	D:               20000,
	MinBlockLength:  0,
	MinIdentity:     0,
	IncludeSelf:     false,
	PrefixDelimiter: '#',
	LenientIngest:   false,
	ScratchCompress: false,
	Parallelism:     0,
}
