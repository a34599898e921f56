package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "ansa"

	// Version is the MCP server version.
	Version = "0.1.0"

	readHeaderTimeout = 10 * time.Second
	shutdownGrace     = 5 * time.Second
)

// Server exposes the query pipeline to MCP clients as tools and
// resources, over stdio or streamable HTTP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates an MCP server bound to the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: Version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves MCP over stdio until the context is cancelled. This is the
// transport Claude Desktop and similar clients launch the binary with.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr until the context is
// cancelled, then drains in-flight requests within a short grace period.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
