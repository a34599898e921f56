// Package mcp provides an MCP (Model Context Protocol) server adapter for Ansa.
// It enables AI assistants like Claude to ask questions over a tenant's documents.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
