// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// NewMCPServer initializes and configures the Tranche MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Tranche Forecast Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_forecasts ---
	s.AddTool(mcp.NewTool("get_forecasts",
		mcp.WithDescription("Latest pessimistic, nominal and optimistic completion forecasts of every category of a source."),
		mcp.WithString("source", mcp.Description("Source key, e.g. a project."), mcp.Required()),
	), h.handleGetForecasts)

	// --- 2. Tool: get_velocity ---
	s.AddTool(mcp.NewTool("get_velocity",
		mcp.WithDescription("Weekly velocity records of a source with deltas, estimates and forecast dates."),
		mcp.WithString("source", mcp.Description("Source key."), mcp.Required()),
		mcp.WithString("category", mcp.Description("Only return records of this category.")),
	), h.handleGetVelocity)

	// --- 3. Tool: get_backlog ---
	s.AddTool(mcp.NewTool("get_backlog",
		mcp.WithDescription("Backlog points and task counts per date and category for one status."),
		mcp.WithString("source", mcp.Description("Source key."), mcp.Required()),
		mcp.WithString("status", mcp.Description("Task status. Defaults to 'open'."), mcp.Enum(schema.OpenStatus, schema.ResolvedStatus)),
		mcp.WithBoolean("zoom", mcp.Description("Only show categories flagged for the zoomed view.")),
	), h.handleGetBacklog)

	// --- 4. Tool: get_recently_closed ---
	s.AddTool(mcp.NewTool("get_recently_closed",
		mcp.WithDescription("Work closed per week and category, or the individual tasks closed in the last two weeks."),
		mcp.WithString("source", mcp.Description("Source key."), mcp.Required()),
		mcp.WithBoolean("tasks", mcp.Description("List individual tasks instead of weekly aggregates.")),
	), h.handleGetRecentlyClosed)

	// --- 5. Tool: list_sources ---
	s.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List every source with recorded task snapshots."),
	), h.handleListSources)

	// --- 6. Tool: run_report ---
	s.AddTool(mcp.NewTool("run_report",
		mcp.WithDescription("Recompute every derived table of a source from its snapshots."),
		mcp.WithString("source", mcp.Description("Source key."), mcp.Required()),
	), h.handleRunReport)

	return s
}

// StartMCPServer starts the Tranche MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
