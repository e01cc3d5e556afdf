// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CorpusScanner: Picks up raw documents from the configured corpus root
//   - Extractor: Parses raw bytes into provenance-tagged text sections
//   - ExtractorRegistry: Selects the extractor for a document format
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - VectorIndex: Persists embeddings and answers nearest-neighbour queries
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
