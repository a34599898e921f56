package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Ansa resources.
	uriScheme = "ansa://"

	// historyResourceLimit caps entries served per history read.
	historyResourceLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for a tenant's documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tenants/{tenantId}/documents",
		Name:        "tenant-documents",
		Description: "Documents indexed for a specific tenant",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a tenant's query history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tenants/{tenantId}/history",
		Name:        "tenant-history",
		Description: "Query history for a specific tenant, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleDocumentsResource returns the documents of a specific tenant.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	tenantID := extractTenantID(req.Params.URI, "/documents")
	if tenantID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Document.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Build simplified document list.
	type docInfo struct {
		ID        string `json:"id"`
		Path      string `json:"path"`
		DocType   string `json:"doc_type"`
		Processed bool   `json:"processed"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:        docs[i].ID,
			Path:      docs[i].OriginalPath,
			DocType:   docs[i].DocType,
			Processed: docs[i].Processed,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns the query history of a specific tenant.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	tenantID := extractTenantID(req.Params.URI, "/history")
	if tenantID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	queries, err := s.ports.Query.History(ctx, tenantID, "", historyResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	// Build simplified history list.
	type queryInfo struct {
		ID         string  `json:"id"`
		Question   string  `json:"question"`
		Answer     string  `json:"answer,omitempty"`
		Confidence float64 `json:"confidence"`
		Status     string  `json:"status"`
		CreatedAt  string  `json:"created_at"`
	}

	infos := make([]queryInfo, len(queries))
	for i := range queries {
		infos[i] = queryInfo{
			ID:         queries[i].ID,
			Question:   queries[i].Question,
			Answer:     queries[i].Answer,
			Confidence: queries[i].Confidence,
			Status:     string(queries[i].Status),
			CreatedAt:  queries[i].CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTenantID extracts the tenant ID from a URI like
// ansa://tenants/{tenantId}{suffix}.
func extractTenantID(uri, suffix string) string {
	const prefix = uriScheme + "tenants/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
