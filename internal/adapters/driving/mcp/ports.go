package mcp

import (
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Policy decodes and queries policy sessions.
	Policy driving.PolicyService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Policy == nil {
		return ErrMissingPolicyService
	}
	return nil
}
