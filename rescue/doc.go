// Package rescue implements the proximity-based rescue step (§4.E): it
// retains non-scaffold mappings lying close, in 2-D query/target center
// space, to a surviving scaffold anchor in the same chromosome-pair
// bucket.
package rescue
