// Package tui provides an interactive chat interface for ansa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions and serves history.
	Query driving.QueryService

	// Document manages the tenant's documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Document is optional; the chat view works without it
	return nil
}
