package pafio

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pangenome/sweepga/seqdict"
)

// Reader parses the text tab-delimited pairwise format (§6) from an
// underlying stream, transparently gzip-decompressing if the stream
// starts with the gzip magic.
type Reader struct {
	sc      *bufio.Scanner
	dict    *seqdict.Dict
	lenient bool

	lineNo  int
	skipped int
	nextRank int

	seqLen map[string]int64
}

// Open opens path (local or s3://) via github.com/grailbio/base/file and
// returns a Reader over it plus the underlying file.File for the caller to
// Close. lenient selects §7's "a lenient mode may skip and count" policy
// for malformed records; when false, the first malformed line is fatal.
func Open(ctx context.Context, path string, dict *seqdict.Dict, lenient bool) (*Reader, file.File, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "pafio: open", path)
	}
	return NewReader(f.Reader(ctx), dict, lenient), f, nil
}

// NewReader wraps r directly, sniffing for gzip compression.
func NewReader(r io.Reader, dict *seqdict.Dict, lenient bool) *Reader {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		if gz, err := gzip.NewReader(br); err == nil {
			r = gz
		}
	} else {
		r = br
	}
	return &Reader{
		sc:      bufio.NewScanner(r),
		dict:    dict,
		lenient: lenient,
		seqLen:  make(map[string]int64),
	}
}

// Skipped returns the number of malformed lines silently dropped so far
// under lenient mode.
func (r *Reader) Skipped() int { return r.skipped }

// Next returns the next record together with its exact source line (for
// callers that re-emit it with appended tags), or ok=false once the
// stream is exhausted. err is non-nil only for a fatal condition
// (malformed line outside lenient mode, or inconsistent sequence length,
// both always fatal).
func (r *Reader) Next() (rec seqdict.Record, line string, ok bool, err error) {
	for r.sc.Scan() {
		r.lineNo++
		line := r.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, perr := r.parseLine(line)
		if perr != nil {
			if _, inconsistent := perr.(seqLenError); r.lenient && !inconsistent {
				r.skipped++
				continue
			}
			return seqdict.Record{}, "", false, errors.E(perr, "pafio: malformed record at line", r.lineNo)
		}
		if rec.QueryStart >= rec.QueryEnd || rec.TargetStart >= rec.TargetEnd {
			// Zero-length record (§7 "Numerical edge"): drop silently.
			continue
		}
		rec.Rank = r.nextRank
		r.nextRank++
		return rec, line, true, nil
	}
	if err := r.sc.Err(); err != nil {
		return seqdict.Record{}, "", false, errors.E(err, "pafio: scan")
	}
	return seqdict.Record{}, "", false, nil
}

func (r *Reader) parseLine(line string) (seqdict.Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 12 {
		return seqdict.Record{}, errors.New("fewer than 12 mandatory fields")
	}

	queryName, queryLen := fields[0], fields[1]
	queryStart, queryEnd := fields[2], fields[3]
	strandField := fields[4]
	targetName, targetLen := fields[5], fields[6]
	targetStart, targetEnd := fields[7], fields[8]
	matchesField, blockLenField := fields[9], fields[10]

	qLen, err := strconv.ParseInt(queryLen, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "query length")
	}
	tLen, err := strconv.ParseInt(targetLen, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "target length")
	}
	if err := r.checkSeqLen(queryName, qLen); err != nil {
		return seqdict.Record{}, err
	}
	if err := r.checkSeqLen(targetName, tLen); err != nil {
		return seqdict.Record{}, err
	}

	qs, err := strconv.ParseInt(queryStart, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "query start")
	}
	qe, err := strconv.ParseInt(queryEnd, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "query end")
	}
	ts, err := strconv.ParseInt(targetStart, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "target start")
	}
	te, err := strconv.ParseInt(targetEnd, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "target end")
	}

	var strand seqdict.Strand
	switch strandField {
	case "+":
		strand = seqdict.Forward
	case "-":
		strand = seqdict.Reverse
	default:
		return seqdict.Record{}, errors.New("strand field must be + or -")
	}

	matches, err := strconv.ParseInt(matchesField, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "matches")
	}
	blockLength, err := strconv.ParseInt(blockLenField, 10, 64)
	if err != nil {
		return seqdict.Record{}, errors.E(err, "block length")
	}

	identity, haveDV := parseTags(fields[12:])
	if !haveDV {
		if blockLength > 0 {
			identity = float64(matches) / float64(blockLength)
		}
	}

	rec := seqdict.Record{
		QueryID:     r.dict.Intern(queryName),
		TargetID:    r.dict.Intern(targetName),
		QueryStart:  qs,
		QueryEnd:    qe,
		TargetStart: ts,
		TargetEnd:   te,
		Strand:      strand,
		BlockLength: blockLength,
		Identity:    identity,
		ChainID:     seqdict.NoChain,
	}
	if verr := rec.Validate(qLen, tLen); verr != nil {
		return seqdict.Record{}, verr
	}
	return rec, nil
}

// seqLenError reports a sequence name seen with two different lengths.
// Next treats it as fatal even in lenient mode.
type seqLenError struct{ name string }

func (e seqLenError) Error() string { return "inconsistent sequence length for " + e.name }

// checkSeqLen enforces §7's "Inconsistent sequence length" fatal policy:
// the same sequence name must always be reported with the same length.
func (r *Reader) checkSeqLen(name string, length int64) error {
	if prev, ok := r.seqLen[name]; ok {
		if prev != length {
			return seqLenError{name: name}
		}
		return nil
	}
	r.seqLen[name] = length
	return nil
}

// parseTags scans the optional tag:type:value triples for the divergence
// tag dv:f:<float>, returning identity = 1 - divergence when present.
func parseTags(tags []string) (identity float64, found bool) {
	for _, t := range tags {
		parts := strings.SplitN(t, ":", 3)
		if len(parts) != 3 {
			continue
		}
		if parts[0] == "dv" && parts[1] == "f" {
			dv, err := strconv.ParseFloat(parts[2], 64)
			if err == nil {
				return 1 - dv, true
			}
		}
	}
	return 0, false
}
