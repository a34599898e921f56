package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// defaultTenantID scopes requests that omit a tenant.
const defaultTenantID = "default"

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer over the tenant's documents"`
	TenantID string `json:"tenant_id,omitempty" jsonschema:"tenant scope (default: default)"`
	UserID   string `json:"user_id,omitempty" jsonschema:"user identifier recorded in query history"`
	Strategy string `json:"strategy,omitempty" jsonschema:"force a strategy: single_hop, self_consistency or multi_hop"`
	Samples  int    `json:"samples,omitempty" jsonschema:"self-consistency sample count override"`
	MaxHops  int    `json:"max_hops,omitempty" jsonschema:"multi-hop decomposition ceiling override"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Strategy   string         `json:"strategy"`
	HopCount   int            `json:"hop_count,omitempty"`
	Degraded   bool           `json:"degraded,omitempty"`
	Sources    []SourceOutput `json:"sources,omitempty"`
	Error      string         `json:"error,omitempty"`
	ErrorType  string         `json:"error_type,omitempty"`
}

// SourceOutput represents one supporting chunk.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	TenantID string `json:"tenant_id,omitempty" jsonschema:"tenant scope (default: default)"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents one indexed document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	DocType   string `json:"doc_type"`
	Processed bool   `json:"processed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question over the tenant's documents using retrieval-augmented generation",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the tenant's indexed documents",
	}, s.handleListDocuments)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	tenantID := input.TenantID
	if tenantID == "" {
		tenantID = defaultTenantID
	}

	req := driving.QueryRequest{
		TenantID: tenantID,
		UserID:   input.UserID,
		Question: input.Question,
		Options: domain.QueryOptions{
			ForceStrategy: domain.Strategy(input.Strategy),
			SampleCount:   input.Samples,
			MaxHops:       input.MaxHops,
		},
	}

	resp, err := s.ports.Query.Answer(ctx, req)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     resp.Answer,
		Confidence: resp.Confidence,
		Strategy:   string(resp.Strategy),
		HopCount:   resp.HopCount,
		Degraded:   resp.Degraded,
		Error:      resp.Error,
		ErrorType:  resp.ErrorType,
	}

	for i := range resp.Sources {
		snippet := resp.Sources[i].Snippet
		if snippet == "" {
			snippet = resp.Sources[i].Text
		}
		output.Sources = append(output.Sources, SourceOutput{
			DocumentID: resp.Sources[i].DocumentID,
			ChunkID:    resp.Sources[i].ChunkID,
			Score:      resp.Sources[i].Score,
			Snippet:    snippet,
		})
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{Documents: []DocumentOutput{}}, nil
	}

	tenantID := input.TenantID
	if tenantID == "" {
		tenantID = defaultTenantID
	}

	docs, err := s.ports.Document.List(ctx, tenantID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}

	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:        docs[i].ID,
			Path:      docs[i].OriginalPath,
			DocType:   docs[i].DocType,
			Processed: docs[i].Processed,
		}
	}

	return nil, output, nil
}
