package seqdict

import (
	farm "github.com/dgryski/go-farm"
)

// ID is a compact, nonnegative sequence identifier, stable for the
// lifetime of one filtering run.
type ID int32

// DefaultDelimiter is the genome-prefix delimiter used when none is
// configured: names of the form "genome#haplotype#chromosome" are grouped
// by the "genome" component.
const DefaultDelimiter = '#'

// Dict interns sequence names to compact integer ids in first-seen order.
// It is built once during ingest and is read-only for the rest of a run
// (§5: "no lock needed past ingest").
//
// Lookups are hash+verify: the hash table holds farm.Hash64 buckets, each
// checked against the interned name itself to rule out collisions. This
// keeps Intern O(1) amortized without the risk of a silent hash collision
// merging two distinct sequence names.
type Dict struct {
	delim byte
	names []string
	byKey map[uint64][]ID
}

// New returns an empty Dict using delim as the genome-prefix delimiter.
// A zero delim selects DefaultDelimiter.
func New(delim byte) *Dict {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	return &Dict{
		delim: delim,
		byKey: make(map[uint64][]ID),
	}
}

// Intern returns the id for name, assigning a fresh one in first-seen
// order if name hasn't been seen before. Idempotent.
func (d *Dict) Intern(name string) ID {
	h := farm.Hash64([]byte(name))
	for _, id := range d.byKey[h] {
		if d.names[id] == name {
			return id
		}
	}
	id := ID(len(d.names))
	d.names = append(d.names, name)
	d.byKey[h] = append(d.byKey[h], id)
	return id
}

// Lookup returns the id for name and whether it has been interned.
func (d *Dict) Lookup(name string) (ID, bool) {
	h := farm.Hash64([]byte(name))
	for _, id := range d.byKey[h] {
		if d.names[id] == name {
			return id, true
		}
	}
	return 0, false
}

// Name returns the name for id. It panics if id is out of range, which
// would be an internal consistency violation (§7): every id in play was
// handed out by Intern.
func (d *Dict) Name(id ID) string {
	return d.names[id]
}

// Len returns the number of distinct interned names.
func (d *Dict) Len() int {
	return len(d.names)
}

// Prefix returns the genome-level prefix of name: everything up to (not
// including) the first occurrence of the dictionary's delimiter. If the
// delimiter doesn't occur, the whole name is the prefix. Pure function of
// configuration, as required by §4.B.
func (d *Dict) Prefix(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == d.delim {
			return name[:i]
		}
	}
	return name
}

// PrefixID returns the genome-level prefix of the name interned as id.
func (d *Dict) PrefixID(id ID) string {
	return d.Prefix(d.names[id])
}
