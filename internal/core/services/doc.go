// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The decode pipeline is:
//
//	page texts -> Segment -> SemanticIndex (via EmbeddingGateway) -> RetrievalService
//
// Services are pure Go with no CGO dependencies.
package services
