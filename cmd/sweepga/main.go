// Command sweepga filters a text tab-delimited pairwise alignment file
// through the weighted plane-sweep / chain / rescue pipeline (§2).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/pangenome/sweepga/pafio"
	"github.com/pangenome/sweepga/pipeline"
	"github.com/pangenome/sweepga/seqdict"
	"github.com/pangenome/sweepga/sweep"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: sweepga -input=<path> -output=<path> [flags]

Filters pairwise whole-genome alignments via a weighted plane-sweep
filter, a union-find chainer, and a proximity-based rescue step.

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	inputPath := flag.String("input", "", "Input alignment file (local path or s3://); required. A trailing .gz is gzip-decompressed automatically.")
	outputPath := flag.String("output", "", "Output alignment file (local path or s3://); required.")

	cfg := pipeline.DefaultConfig
	preFilterStr := flag.String("pre-filter", "1:1", `Plane sweep #1 multiplicity cap "M:N" (or "inf:inf", "1:inf", ...).`)
	scaffoldFilterStr := flag.String("scaffold-filter", "inf:inf", `Plane sweep #2 multiplicity cap "M:N", applied to scaffold chains.`)
	flag.Float64Var(&cfg.Tau, "tau", cfg.Tau, "Eclipsing overlap-ratio tolerance shared by both plane sweeps.")
	flag.StringVar(&cfg.Score, "score", cfg.Score, "Scoring function: log1p_length_identity (default), identity, block_length, block_length_identity, matches.")
	flag.Int64Var(&cfg.J, "gap-threshold", cfg.J, "Chainer gap threshold J; 0 disables chaining.")
	flag.Int64Var(&cfg.S, "min-scaffold-span", cfg.S, "Minimum bounding-hull query span for a chain to become a scaffold.")
	flag.Int64Var(&cfg.D, "rescue-distance", cfg.D, "Rescue radius D; 0 means only scaffold anchors survive.")
	flag.Int64Var(&cfg.MinBlockLength, "min-block-length", cfg.MinBlockLength, "Drop ingested records below this block length.")
	flag.Float64Var(&cfg.MinIdentity, "min-identity", cfg.MinIdentity, "Drop ingested records below this identity.")
	flag.BoolVar(&cfg.IncludeSelf, "include-self", cfg.IncludeSelf, "Keep same-sequence (self-mapping) records instead of dropping them.")
	delim := flag.String("prefix-delimiter", string(cfg.PrefixDelimiter), "Single-character genome-prefix delimiter.")
	flag.BoolVar(&cfg.LenientIngest, "lenient", cfg.LenientIngest, "Skip and count malformed input records instead of aborting.")
	flag.BoolVar(&cfg.ScratchCompress, "compress-scratch", cfg.ScratchCompress, "Write a Snappy-compressed scratch checkpoint of the ingested records to a temp file.")
	flag.IntVar(&cfg.Parallelism, "parallelism", cfg.Parallelism, "Worker pool size for chromosome-pair buckets; 0 means GOMAXPROCS.")
	compressOutput := flag.Bool("compress-output", false, "Gzip-compress the output file.")

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if *inputPath == "" || *outputPath == "" {
		log.Fatalf("-input and -output are both required")
	}
	if len(*delim) != 1 {
		log.Fatalf("-prefix-delimiter must be exactly one character, got %q", *delim)
	}
	cfg.PrefixDelimiter = (*delim)[0]

	var err error
	cfg.PreFilter, err = sweep.ParseMultiplicity(*preFilterStr)
	if err != nil {
		log.Fatalf("-pre-filter: %v", err)
	}
	cfg.ScaffoldFilter, err = sweep.ParseMultiplicity(*scaffoldFilterStr)
	if err != nil {
		log.Fatalf("-scaffold-filter: %v", err)
	}

	dict := seqdict.New(cfg.PrefixDelimiter)
	records, sourceLines, skipped, err := ingest(ctx, *inputPath, dict, cfg)
	if err != nil {
		log.Panicf("sweepga: ingest %v: %v", *inputPath, err)
	}
	if skipped > 0 {
		log.Printf("sweepga: skipped %d malformed record(s) under -lenient", skipped)
	}
	log.Printf("sweepga: read %d records from %s", len(records), *inputPath)

	filtered, err := pipeline.Run(ctx, records, dict, cfg)
	if err != nil {
		log.Panicf("sweepga: pipeline: %v", err)
	}

	if err := emit(ctx, *outputPath, filtered, sourceLines, *compressOutput); err != nil {
		log.Panicf("sweepga: emit %v: %v", *outputPath, err)
	}

	survivors := pipeline.Survivors(filtered)
	log.Printf("sweepga: %d of %d records survived, written to %s", len(survivors), len(records), *outputPath)
}

// ingest reads every record from path, recording each record's original
// source line indexed by its Rank so emit can later append tags to the
// exact source line rather than reconstructing fields from a Record.
func ingest(ctx context.Context, path string, dict *seqdict.Dict, cfg pipeline.Config) (records []seqdict.Record, sourceLines []string, skipped int, err error) {
	r, f, err := pafio.Open(ctx, path, dict, cfg.LenientIngest)
	if err != nil {
		return nil, nil, 0, err
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = errors.E(cerr, "pafio: close", path)
		}
	}()

	for {
		rec, line, ok, nerr := r.Next()
		if nerr != nil {
			return nil, nil, 0, nerr
		}
		if !ok {
			break
		}
		records = append(records, rec)
		sourceLines = append(sourceLines, line)
	}
	return records, sourceLines, r.Skipped(), nil
}

// emit writes every surviving record of filtered, in rank order, as its
// original source line plus the ch:Z:/st:Z: tags the pipeline assigned.
func emit(ctx context.Context, path string, filtered []seqdict.Record, sourceLines []string, compress bool) (err error) {
	w, f, err := pafio.Create(ctx, path, compress)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = errors.E(cerr, "pafio: close", path)
		}
	}()

	for _, r := range filtered {
		if r.Status == seqdict.Filtered {
			continue
		}
		if err := w.WriteLine(sourceLines[r.Rank], r.ChainID, r.Status); err != nil {
			return err
		}
	}
	return nil
}
