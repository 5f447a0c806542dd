package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/foothold/core"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/ingest"
	"github.com/huangsam/foothold/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// requestConfig applies the arguments shared by every tool on top of the base config.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("source", ""); p != "" {
		path, err := contract.ResolveSourcePath(p)
		if err != nil {
			return nil, err
		}
		cfg.SourcePath = path
	}
	if cfg.SourcePath == "" {
		return nil, fmt.Errorf("source is required")
	}
	if s := request.GetString("sheet", ""); s != "" {
		cfg.Sheet = s
	}
	if c := request.GetString("cities", ""); c != "" {
		cfg.Entities = contract.ParseSelection(c)
	}
	cfg.AnchorOrigin = request.GetBool("anchor_origin", cfg.AnchorOrigin)
	return cfg, nil
}

func (h *toolHandler) handleRankCities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if v := request.GetString("variant", ""); v != "" {
		if cfg.Variant, err = contract.ParseVariant(v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
	}

	result, err := core.RankSelection(ctx, cfg, ingest.NewLoader(), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(map[string]any{
		"variant":  result.Variant,
		"run_id":   result.RunID,
		"rankings": schema.EnrichRankings(result.Rankings),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleNormalizeDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	matrix, err := core.NormalizeSelection(ctx, cfg, ingest.NewLoader(), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("normalization failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(matrix, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleScoreCities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	scored, err := core.ScoreSelection(ctx, cfg, ingest.NewLoader(), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	type scoreView struct {
		Entity string     `json:"entity"`
		Area   float64    `json:"area"`
		Vector []*float64 `json:"vector"`
		Filled []string   `json:"filled"`
	}
	views := make([]scoreView, len(scored))
	for i, s := range scored {
		views[i] = scoreView{Entity: s.Name, Area: s.Area, Vector: schema.ToNullable(s.Vector), Filled: s.Filled}
		if views[i].Filled == nil {
			views[i].Filled = []string{}
		}
	}

	jsonData, _ := json.MarshalIndent(views, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleChartCities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if l := request.GetString("layout", ""); l != "" {
		cfg.Layout = schema.ChartLayout(l)
		if _, ok := schema.ValidChartLayouts[cfg.Layout]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: unknown layout %q", l)), nil
		}
	}

	matrix, err := core.LoadMatrix(ctx, cfg, ingest.NewLoader(), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chart failed: %v", err)), nil
	}
	doc, err := core.BuildChart(ctx, cfg, matrix)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chart failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}
