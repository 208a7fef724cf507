// Package pipeline sequences the plane sweep, chainer, and rescuer
// according to configuration (§2, §4.F): it ingests records, builds the
// grouping index, runs plane sweep #1 per chromosome pair, chains
// survivors into scaffold candidates, runs plane sweep #2 over scaffolds
// within genome-pair groups, rescues non-scaffold mappings near a
// surviving anchor, and restores final emission order.
package pipeline
