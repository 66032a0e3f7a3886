package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// DecodeInput is the input schema for the decode_policy tool.
type DecodeInput struct {
	Ref string `json:"ref" jsonschema:"policy location: a local path, file://, gdrive://<fileID> or github://owner/repo/path[@ref]"`
}

// DecodeOutput is the output schema for the decode_policy tool.
type DecodeOutput struct {
	SessionID   string            `json:"session_id"`
	FileName    string            `json:"file_name"`
	PageCount   int               `json:"page_count"`
	ClauseCount int               `json:"clause_count"`
	IndexState  domain.IndexState `json:"index_state"`
	IndexError  string            `json:"index_error,omitempty"`
}

// QueryInput is the input schema for the query_policy tool.
type QueryInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by decode_policy"`
	Query     string `json:"query" jsonschema:"question about the policy"`
	K         int    `json:"k,omitempty" jsonschema:"number of clauses to retrieve (default 5)"`
}

// QueryOutput is the output schema for the query_policy tool.
type QueryOutput struct {
	Answer string `json:"answer"`
}

// SessionInput identifies a session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session returned by decode_policy"`
}

// ClausesOutput is the output schema for the list_clauses tool.
type ClausesOutput struct {
	Clauses []domain.Clause `json:"clauses"`
	Count   int             `json:"count"`
}

// AnalyzeOutput is the output schema for the analyze_policy tool.
type AnalyzeOutput struct {
	Summary string                `json:"summary"`
	Pages   []domain.PageAnalysis `json:"pages"`
}

// ReportOutput is the output schema for the policy_report tool.
type ReportOutput struct {
	Report string `json:"report"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "decode_policy",
		Description: "Decode an insurance policy document into clauses and build its search index",
	}, s.handleDecode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_policy",
		Description: "Retrieve the policy clauses most relevant to a question",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_clauses",
		Description: "List every clause of a decoded policy in document order",
	}, s.handleListClauses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_policy",
		Description: "Summarise a decoded policy and classify each page",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "policy_report",
		Description: "Plain-text report of an analysed policy",
	}, s.handleReport)
}

func (s *Server) handleDecode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DecodeInput,
) (*mcp.CallToolResult, DecodeOutput, error) {
	session, err := s.ports.Policy.Decode(ctx, input.Ref)
	if err != nil {
		return nil, DecodeOutput{}, err
	}

	out := DecodeOutput{
		SessionID:   session.ID,
		FileName:    session.FileName,
		PageCount:   session.PageCount,
		ClauseCount: len(session.Clauses),
		IndexState:  session.IndexState(),
	}
	if session.Index.IsDegraded() {
		out.IndexError = session.Index.Reason()
	}
	return nil, out, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	answer, err := s.ports.Policy.Query(ctx, input.SessionID, input.Query, input.K)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{Answer: answer}, nil
}

func (s *Server) handleListClauses(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, ClausesOutput, error) {
	clauses, err := s.ports.Policy.Clauses(ctx, input.SessionID)
	if err != nil {
		return nil, ClausesOutput{}, err
	}
	if clauses == nil {
		clauses = []domain.Clause{}
	}
	return nil, ClausesOutput{Clauses: clauses, Count: len(clauses)}, nil
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	analysis, err := s.ports.Policy.Analyze(ctx, input.SessionID)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	return nil, AnalyzeOutput{Summary: analysis.FullSummary, Pages: analysis.Pages}, nil
}

// handleReport analyses the session first if that has not happened yet.
func (s *Server) handleReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	report, err := s.ports.Policy.Report(ctx, input.SessionID)
	if errors.Is(err, domain.ErrInvalidInput) {
		if _, aerr := s.ports.Policy.Analyze(ctx, input.SessionID); aerr != nil {
			return nil, ReportOutput{}, aerr
		}
		report, err = s.ports.Policy.Report(ctx, input.SessionID)
	}
	if err != nil {
		return nil, ReportOutput{}, err
	}
	return nil, ReportOutput{Report: report}, nil
}
