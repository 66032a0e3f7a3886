package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Clausewise resources.
	uriScheme = "clausewise://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Decoded policy sessions, newest first",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session",
		Description: "A decoded policy with its clauses and index state",
		MIMEType:    "application/json",
	}, s.handleSessionResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/report",
		Name:        "session-report",
		Description: "Plain-text report of an analysed policy",
		MIMEType:    "text/plain",
	}, s.handleReportResource)
}

// handleSessionsResource lists all sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessions, err := s.ports.Policy.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	return jsonResult(req.Params.URI, sessions)
}

// handleSessionResource returns one session without its page texts.
func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, rest := extractSessionID(req.Params.URI)
	if id == "" || rest != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	session, err := s.ports.Policy.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	type sessionInfo struct {
		domain.SessionSummary
		Clauses []domain.Clause     `json:"clauses"`
		Index   *domain.IndexHandle `json:"index,omitempty"`
	}
	return jsonResult(req.Params.URI, sessionInfo{
		SessionSummary: session.Summary(),
		Clauses:        session.Clauses,
		Index:          session.Index,
	})
}

// handleReportResource returns the report of an analysed session.
func (s *Server) handleReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, rest := extractSessionID(req.Params.URI)
	if id == "" || rest != "report" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	report, err := s.ports.Policy.Report(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     report,
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID splits clausewise://sessions/{id}[/rest] into id and rest.
func extractSessionID(uri string) (id, rest string) {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	id, rest, _ = strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	return id, rest
}
