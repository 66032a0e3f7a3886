// Package domain defines the core business entities for clausewise.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Clause: A paragraph-level unit of policy text with a stable ID
//   - IndexEntry: The indexed form of a Clause
//   - IndexHandle: Operational or degraded view of a session's index
//   - Session: One decoded policy document and everything derived from it
//   - Analysis: LLM summary and per-page classification
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
