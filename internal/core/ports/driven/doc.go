// Package driven defines the interfaces the core depends on: external
// collaborators (document conversion, figure analysis, text generation)
// and storage (processing ledger, primary sink, fallback log).
// Adapters implement these interfaces; the core never imports adapters.
package driven
