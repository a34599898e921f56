// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LLMProvider: Text generation with optional reasoning traces
//   - EmbeddingService: Generates vector embeddings for queries
//   - VectorIndex: Tenant-partitioned similarity search
//   - DocumentStore: Document/chunk persistence
//   - QueryStore: Append-only query history
//   - ConfigStore: Application configuration
//
// The concrete vector index and ingestion pipeline are external
// collaborators; only their contracts live here.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
