// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Foothold MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Foothold Ranking Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: rank_cities ---
	s.AddTool(mcp.NewTool("rank_cities",
		mcp.WithDescription("Rank cities into four reference tiers from a spreadsheet of socio-economic criteria."),
		mcp.WithString("source", mcp.Description("Path to the .xlsx, .csv or .tsv source (defaults to the server's configured source).")),
		mcp.WithString("cities", mcp.Description("Comma-separated cities to rank. At least 3; defaults to every city.")),
		mcp.WithString("variant", mcp.Description("Ranking variant. Defaults to the server's configured variant."), mcp.Enum("1", "2")),
		mcp.WithString("sheet", mcp.Description("Workbook sheet name or 1-based index.")),
		mcp.WithBoolean("anchor_origin", mcp.Description("Append an all-zero origin city before normalizing.")),
	), h.handleRankCities)

	// --- 2. Tool: normalize_dataset ---
	s.AddTool(mcp.NewTool("normalize_dataset",
		mcp.WithDescription("Return every criterion rescaled onto 0..10. Missing values are null."),
		mcp.WithString("source", mcp.Description("Path to the .xlsx, .csv or .tsv source.")),
		mcp.WithString("cities", mcp.Description("Comma-separated cities to include in the response.")),
		mcp.WithString("sheet", mcp.Description("Workbook sheet name or 1-based index.")),
		mcp.WithBoolean("anchor_origin", mcp.Description("Append an all-zero origin city before normalizing.")),
	), h.handleNormalizeDataset)

	// --- 3. Tool: score_cities ---
	s.AddTool(mcp.NewTool("score_cities",
		mcp.WithDescription("Return the gap-filled vectors and radar polygon areas of cities."),
		mcp.WithString("source", mcp.Description("Path to the .xlsx, .csv or .tsv source.")),
		mcp.WithString("cities", mcp.Description("Comma-separated cities to score; defaults to every city.")),
		mcp.WithString("sheet", mcp.Description("Workbook sheet name or 1-based index.")),
	), h.handleScoreCities)

	// --- 4. Tool: chart_cities ---
	s.AddTool(mcp.NewTool("chart_cities",
		mcp.WithDescription("Return radar chart geometry of cities as a GeoJSON FeatureCollection."),
		mcp.WithString("source", mcp.Description("Path to the .xlsx, .csv or .tsv source.")),
		mcp.WithString("cities", mcp.Description("Comma-separated cities to chart; defaults to every city.")),
		mcp.WithString("layout", mcp.Description("Axis placement. Defaults to 'equal'."), mcp.Enum("equal", "sphere")),
		mcp.WithString("sheet", mcp.Description("Workbook sheet name or 1-based index.")),
	), h.handleChartCities)

	return s
}

// StartMCPServer starts the Foothold MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
