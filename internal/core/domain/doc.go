// Package domain contains the core types and business rules of the
// paperpost pipeline: document identity, figure references, generated
// posts, tone selection, analysis parsing and the similarity gate.
//
// The package is pure: it performs no I/O and depends on no adapters.
package domain
