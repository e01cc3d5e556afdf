// Package domain defines the core business entities for docquery.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes picked up from the corpus root
//   - Section: An extracted text span with its provenance locator
//   - Chunk: A fixed-size overlapping span prepared for embedding
//   - IndexEntry: A chunk paired with its embedding vector
//   - Decision: The per-query retrieval-augmented vs. direct mode choice
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
