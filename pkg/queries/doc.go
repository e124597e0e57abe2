// Package queries builds parameterized Cypher for the fixed read
// patterns of the medication knowledge graph. Builders never execute
// anything.
//
// The hard boundary: no externally supplied value is ever spliced into
// query text. User values travel as bound parameters; the only tokens
// interpolated into Cypher are labels, relationship types and optional
// clauses drawn from the fixed vocabulary in pkg/types.
package queries
