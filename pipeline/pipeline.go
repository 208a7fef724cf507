package pipeline

import (
	"context"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pangenome/sweepga/chain"
	"github.com/pangenome/sweepga/group"
	"github.com/pangenome/sweepga/rescue"
	"github.com/pangenome/sweepga/seqdict"
	"github.com/pangenome/sweepga/sweep"
	"v.io/x/lib/vlog"
)

// Run executes the full filtering pipeline (§2, §4.F) over records, which
// must already be interned against dict and whose Rank fields form a
// bijection onto [0, len(records)) matching their position in the slice
// (the ingest boundary's responsibility, per §3 invariant 3). Run returns
// a new slice, same length and order as records, with Status and ChainID
// populated; callers pass it to Survivors to obtain the final emission
// set.
func Run(ctx context.Context, records []seqdict.Record, dict *seqdict.Dict, cfg Config) ([]seqdict.Record, error) {
	scoreFunc, err := sweep.Named(cfg.Score)
	if err != nil {
		return nil, errors.E(err, "pipeline: invalid scoring function", cfg.Score)
	}

	out := make([]seqdict.Record, len(records))
	copy(out, records)
	for i := range out {
		out[i].Status = seqdict.Unassigned
		out[i].ChainID = seqdict.NoChain
	}

	eligible := make([]bool, len(out))
	for i := range out {
		r := &out[i]
		eligible[i] = r.BlockLength >= cfg.MinBlockLength &&
			r.Identity >= cfg.MinIdentity &&
			(cfg.IncludeSelf || !r.SelfMapping())
		if !eligible[i] {
			r.Status = seqdict.Filtered
		}
	}

	idx := group.Build(out, dict)
	log.Printf("pipeline: ingested %d records, %d chromosome-pair buckets", len(out), len(idx.ChromPairs()))

	if cfg.ScratchCompress {
		if err := writeScratchCheckpoint(out, cfg.ScratchCompress); err != nil {
			return nil, err
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if cfg.J == 0 {
		if err := runPreFilterOnly(ctx, out, idx, scoreFunc, cfg, eligible); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := runFullPipeline(ctx, out, idx, scoreFunc, cfg, eligible); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	anchors := make(map[int]bool)
	for i := range out {
		if out[i].Status == seqdict.Scaffold {
			anchors[i] = true
		}
	}
	rescue.Rescuer{D: cfg.D}.Run(out, idx, anchors)

	return out, nil
}

// runPreFilterOnly implements §4.D's disabled mode: J=0 bypasses the
// chainer and rescuer entirely, so plane sweep #1 alone is the final
// answer.
func runPreFilterOnly(ctx context.Context, out []seqdict.Record, idx *group.Index, scoreFunc sweep.Score, cfg Config, eligible []bool) error {
	chromPairs := idx.ChromPairs()
	errs := errors.Once{}
	err := forEachChunk(resolveParallelism(cfg.Parallelism), len(chromPairs), func(i int) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ck := chromPairs[i]
		bucket := eligibleIndices(idx.ChromBucket(ck), eligible)
		survivors := sweep.Sweep(out, bucket, scoreFunc, cfg.PreFilter, cfg.Tau)
		survived := make(map[int]bool, len(survivors))
		for _, s := range survivors {
			survived[s] = true
		}
		for _, i := range bucket {
			if !survived[i] {
				out[i].Status = seqdict.Filtered
			}
		}
		return nil
	})
	errs.Set(err)
	return errs.Err()
}

// runFullPipeline implements the J>0 path: plane sweep #1 feeds the
// chainer, scaffold candidates compete in plane sweep #2 per
// chromosome-pair bucket (never merged across a whole genome pair, per
// the grouping requirement demonstrated by spec.md scenario 5), and
// surviving scaffold members are marked as anchors. Non-anchor records
// (including every plane-sweep-1 loser) are left for the rescue pass to
// classify.
func runFullPipeline(ctx context.Context, out []seqdict.Record, idx *group.Index, scoreFunc sweep.Score, cfg Config, eligible []bool) error {
	chromPairs := idx.ChromPairs()
	ids := &chain.IDAllocator{}
	errs := errors.Once{}

	err := forEachChunk(resolveParallelism(cfg.Parallelism), len(chromPairs), func(i int) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ck := chromPairs[i]
		bucket := eligibleIndices(idx.ChromBucket(ck), eligible)
		if len(bucket) == 0 {
			return nil
		}

		stage1Survivors := sweep.Sweep(out, bucket, scoreFunc, cfg.PreFilter, cfg.Tau)
		chains := chain.Run(out, stage1Survivors, scoreFunc, cfg.J, cfg.S, ids)
		vlog.VI(1).Infof("pipeline: bucket %+v: %d stage-1 survivors, %d chains", ck, len(stage1Survivors), len(chains))

		var scaffolds []chain.Chain
		for _, c := range chains {
			if !c.IsScaffold {
				continue
			}
			for _, m := range c.Members {
				out[m].ChainID = c.ID
			}
			scaffolds = append(scaffolds, c)
		}
		if len(scaffolds) == 0 {
			return nil
		}

		reps := make([]seqdict.Record, len(scaffolds))
		for i, c := range scaffolds {
			reps[i] = c.Representative
		}
		repIndices := make([]int, len(reps))
		for i := range reps {
			repIndices[i] = i
		}
		survivingReps := sweep.Sweep(reps, repIndices, scaffoldScoreFunc(reps, scaffolds), cfg.ScaffoldFilter, cfg.Tau)
		for _, ri := range survivingReps {
			for _, m := range scaffolds[ri].Members {
				out[m].Status = seqdict.Scaffold
			}
		}
		return nil
	})
	errs.Set(err)
	return errs.Err()
}

// scaffoldScoreFunc adapts the chainer's summed per-chain score to the
// sweep.Score signature, keyed by the representative record's identity in
// reps (sweep.Sweep always scores records drawn from the exact slice it
// was given, so pointer identity is stable for the duration of one call).
func scaffoldScoreFunc(reps []seqdict.Record, chains []chain.Chain) sweep.Score {
	scoreByPtr := make(map[*seqdict.Record]float64, len(reps))
	for i := range reps {
		scoreByPtr[&reps[i]] = chains[i].Score
	}
	return func(r *seqdict.Record) float64 {
		return scoreByPtr[r]
	}
}

// resolveParallelism turns the configured worker count into a concrete
// bound, defaulting to GOMAXPROCS as cfg.Parallelism's doc promises.
func resolveParallelism(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.GOMAXPROCS(0)
}

// forEachChunk runs fn(i) for every i in [0, n), spread across exactly
// workers traverse.Each jobs (or fewer, for small n), each covering a
// contiguous [start, end) range — the same (jobIdx*n)/workers chunking
// the teacher uses to bound its pileup worker pool
// (pileup/snp/pileup.go). This lets cfg.Parallelism cap concurrency
// without changing traverse.Each's own scheduling.
func forEachChunk(workers, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	return traverse.Each(workers, func(jobIdx int) error {
		start := (jobIdx * n) / workers
		end := ((jobIdx + 1) * n) / workers
		for i := start; i < end; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	})
}

func eligibleIndices(bucket []int, eligible []bool) []int {
	out := make([]int, 0, len(bucket))
	for _, i := range bucket {
		if eligible[i] {
			out = append(out, i)
		}
	}
	return out
}

// Survivors returns the non-Filtered records from a Run result, already in
// rank order (§5 "Ordering guarantees").
func Survivors(records []seqdict.Record) []seqdict.Record {
	out := make([]seqdict.Record, 0, len(records))
	for _, r := range records {
		if r.Status != seqdict.Filtered {
			out = append(out, r)
		}
	}
	return out
}
