// Package pafio reads and writes the text tab-delimited pairwise
// alignment format (§6): at least 12 whitespace-separated mandatory
// fields followed by optional "tag:type:value" triples.
package pafio
