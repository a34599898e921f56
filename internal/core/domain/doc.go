// Package domain defines the core business entities for Ansa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded, tenant-scoped document
//   - Chunk: A retrievable unit within a document
//   - Query: The persisted record of one question/answer exchange
//   - ExecutionPlan / HopSpec: A transient multi-hop decomposition
//   - ReasoningTrace: One sampled reasoning path
//   - Response: The envelope returned for every query
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
