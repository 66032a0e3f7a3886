// Package sqlite provides a SQLite-based implementation of the session store
// and vector backend ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Both stores share a single database connection:
//
//   - SessionStore: decoded policy sessions, stored as JSON documents
//   - VectorBackend: per-session collections of clause embeddings
//
// Embeddings are stored as little-endian float32 blobs and ranked in process
// by cosine similarity.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.clausewise/data/clausewise.db
package sqlite
