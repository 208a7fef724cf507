// Package chain implements the union-find chainer (§4.D): it merges
// nearby colinear mappings within one chromosome-pair bucket into
// scaffold candidates, and represents each qualifying chain with a
// synthetic bounding-hull record for the scaffold-level plane sweep.
package chain
