// ABOUTME: MCP resource implementations for the Oura dashboard.
// ABOUTME: Provides oura://summary, oura://latest, and oura://rejected resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

const (
	summaryURI  = "oura://summary"
	latestURI   = "oura://latest"
	rejectedURI = "oura://rejected"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Oura Summary",
		Description: "Dashboard summary and ratings for the last 30 days",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         latestURI,
		Name:        "Latest Oura Records",
		Description: "Most recent sleep, readiness and activity record",
		MIMEType:    "application/json",
	}, s.handleLatestResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         rejectedURI,
		Name:        "Rejected Records",
		Description: "Records left out at load time and why",
		MIMEType:    "application/json",
	}, s.handleRejectedResource)
}

// Resource handlers

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	v, err := s.view("", "", "")
	if err != nil {
		return nil, err
	}
	sum := v.Summary()

	result := map[string]any{
		"range":       v.Range.String(),
		"summary":     sum,
		"ratings":     sum.Ratings(),
		"highlights":  s.data.Dataset().Highlights(v),
		"stats":       v.Stats,
		"lastUpdated": v.LastUpdated,
		"error":       v.Error,
	}
	return jsonResource(summaryURI, result)
}

func (s *Server) handleLatestResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ds := s.data.Dataset()

	result := map[string]any{}
	if r, ok := pipeline.LatestRecord(ds.Sleep); ok {
		result[string(models.CollectionSleep)] = r
	}
	if r, ok := pipeline.LatestRecord(ds.Readiness); ok {
		result[string(models.CollectionReadiness)] = r
	}
	if r, ok := pipeline.LatestRecord(ds.Activity); ok {
		result[string(models.CollectionActivity)] = r
	}
	return jsonResource(latestURI, result)
}

func (s *Server) handleRejectedResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	rejected := s.data.Dataset().Rejected
	if rejected == nil {
		rejected = []pipeline.Rejection{}
	}
	return jsonResource(rejectedURI, map[string]any{
		"count":    len(rejected),
		"rejected": rejected,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
