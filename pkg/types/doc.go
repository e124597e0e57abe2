// Package types defines the graph vocabulary and domain models shared by
// the extraction, loading and query layers.
//
// The label and relationship-type vocabularies in this package are the
// only tokens that may ever be interpolated into Cypher text. Everything
// that originates outside the process (medication names, patient IDs,
// search terms) travels as a bound query parameter.
package types
