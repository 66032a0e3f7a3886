// Package mcp provides an MCP (Model Context Protocol) server adapter for Clausewise.
// It lets AI assistants decode insurance policies and ask questions about them.
package mcp

import "errors"

// ErrMissingPolicyService is returned when the policy service is not provided.
var ErrMissingPolicyService = errors.New("mcp: policy service is required")
