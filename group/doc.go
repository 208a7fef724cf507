// Package group partitions alignment records into the chromosome-pair and
// genome-pair buckets used by the plane sweep and rescue stages (§4.B).
package group
