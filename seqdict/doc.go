// Package seqdict provides the sequence-name dictionary and the alignment
// record type shared by every stage of the sweepga filtering pipeline.
package seqdict
