// Package tui provides an interactive terminal view of one decoded policy.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Policy loads, analyses and queries sessions.
	Policy driving.PolicyService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(policy driving.PolicyService) *Ports {
	return &Ports{Policy: policy}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Policy == nil {
		return ErrMissingPolicyService
	}
	return nil
}
