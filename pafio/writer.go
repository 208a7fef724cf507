package pafio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pangenome/sweepga/seqdict"
)

// Writer emits surviving records back in the text tab-delimited pairwise
// format, preserving every field and tag of the source line verbatim and
// appending ch:Z: / st:Z: tags (§6). It operates on the original line
// text rather than reconstructing fields from a Record, since the format
// allows arbitrary additional tags (e.g. cg:Z:<CIGAR>) this module never
// parses and must not drop.
type Writer struct {
	bw  *bufio.Writer
	gz  *gzip.Writer
	raw io.Writer
}

// Create opens path (local or s3://) for writing via
// github.com/grailbio/base/file. When compress is true the stream is
// gzip-compressed.
func Create(ctx context.Context, path string, compress bool) (*Writer, file.File, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "pafio: create", path)
	}
	return NewWriter(f.Writer(ctx), compress), f, nil
}

// NewWriter wraps w directly.
func NewWriter(w io.Writer, compress bool) *Writer {
	wr := &Writer{raw: w}
	if compress {
		wr.gz = gzip.NewWriter(w)
		wr.bw = bufio.NewWriter(wr.gz)
	} else {
		wr.bw = bufio.NewWriter(w)
	}
	return wr
}

// WriteLine emits one source line (already validated and classified by
// the pipeline) with its chain and status tags appended. chainID is
// seqdict.NoChain when the record was never assigned one; the ch:Z: tag
// is then omitted, matching §6 ("tags produced on surviving records").
func (w *Writer) WriteLine(sourceLine string, chainID int, status seqdict.Status) error {
	var b strings.Builder
	b.WriteString(strings.TrimRight(sourceLine, "\r\n"))
	if chainID != seqdict.NoChain {
		fmt.Fprintf(&b, "\tch:Z:chain_%d", chainID)
	}
	fmt.Fprintf(&b, "\tst:Z:%s", status)
	b.WriteByte('\n')
	_, err := w.bw.WriteString(b.String())
	return err
}

// Close flushes buffered output and, if this Writer compresses, closes
// the gzip stream.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return errors.E(err, "pafio: flush")
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return errors.E(err, "pafio: gzip close")
		}
	}
	return nil
}

