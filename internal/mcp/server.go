// ABOUTME: MCP server exposing the Oura dashboard pipeline to assistants.
// ABOUTME: Read-only: tools and resources all go through a pipeline.Source.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

// RunLister lists ingestion runs, newest first.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
}

// Server wraps the MCP server with dataset access.
type Server struct {
	mcpServer *mcp.Server
	data      pipeline.Source
	runs      RunLister
	log       *logging.Logger
	now       func() time.Time
}

// NewServer creates a new MCP server. runs may be nil when no run history
// is available.
func NewServer(data pipeline.Source, runs RunLister, log *logging.Logger) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "oura",
			Version: "1.0.0",
		},
		nil,
	)

	if log == nil {
		log = logging.Nop()
	}

	s := &Server{
		mcpServer: mcpServer,
		data:      data,
		runs:      runs,
		log:       log,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server starting", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// view resolves the range arguments against the current dataset.
func (s *Server) view(preset, from, to string) (pipeline.View, error) {
	r, err := models.ResolveRange(preset, from, to, s.now())
	if err != nil {
		return pipeline.View{}, err
	}
	return s.data.Dataset().View(r), nil
}
