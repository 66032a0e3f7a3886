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
//   - EmbeddingProvider: Remote embedding API returning raw payloads
//   - VectorBackend: Named vector collections (memory, SQLite, Redis, Elasticsearch)
//   - SessionStore: Session persistence
//   - PageExtractor: Per-page text extraction from policy files
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, summary and page analysis are disabled.
//   - PolicyFetcher: Remote document sources. Without it, only local paths are accepted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
