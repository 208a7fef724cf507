// Package sweep implements the weighted plane-sweep filter (§4.C): given a
// bucket of records, a scoring function, a (M, N) multiplicity cap pair and
// an overlap tolerance, it returns the surviving subset in original order.
package sweep
