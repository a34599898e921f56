// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: Document and chunk persistence
//   - QueryStore: Query history persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Every table carries a tenant_id column and every
// query filters on it; there is no cross-tenant access path.
//
// # Data Location
//
// By default, the database is stored at ~/.ansa/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
