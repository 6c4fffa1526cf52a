package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/tranche/core"
	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager

	once     sync.Once
	pipeline *core.Pipeline // shared so runs of one source never interleave
}

// store returns the active store or a tool error for the client.
func (h *toolHandler) store() (contract.Store, *mcp.CallToolResult) {
	if h.mgr == nil {
		return nil, mcp.NewToolResultError("store is not initialized")
	}
	s := h.mgr.GetStore()
	if s == nil {
		return nil, mcp.NewToolResultError("store is not initialized")
	}
	return s, nil
}

func (h *toolHandler) getPipeline(s contract.Store) *core.Pipeline {
	h.once.Do(func() {
		h.pipeline = core.NewPipeline(s, h.baseCfg, contract.NewLogger(os.Stderr, h.baseCfg.Verbose))
	})
	return h.pipeline
}

// requireSource reads the mandatory source argument.
func requireSource(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	source := strings.TrimSpace(request.GetString("source", ""))
	if source == "" {
		return "", mcp.NewToolResultError("source is required")
	}
	return source, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetForecasts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errRes := requireSource(request)
	if errRes != nil {
		return errRes, nil
	}
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}

	rows, err := core.Forecasts(ctx, s, source, core.ViewDate(h.baseCfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast lookup failed: %v", err)), nil
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleGetVelocity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errRes := requireSource(request)
	if errRes != nil {
		return errRes, nil
	}
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}

	rows, err := core.Velocity(ctx, s, source, request.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("velocity lookup failed: %v", err)), nil
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleGetBacklog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errRes := requireSource(request)
	if errRes != nil {
		return errRes, nil
	}
	status := strings.ToLower(request.GetString("status", schema.OpenStatus))
	if status != schema.OpenStatus && status != schema.ResolvedStatus {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status %q: must be open or resolved", status)), nil
	}
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}

	rows, err := core.Backlog(ctx, s, source, status, request.GetBool("zoom", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("backlog lookup failed: %v", err)), nil
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleGetRecentlyClosed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errRes := requireSource(request)
	if errRes != nil {
		return errRes, nil
	}
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}

	if request.GetBool("tasks", false) {
		rows, err := s.LoadRecentlyClosedTasks(ctx, source)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("closed task lookup failed: %v", err)), nil
		}
		return jsonResult(rows)
	}
	rows, err := s.LoadRecentlyClosed(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("closed lookup failed: %v", err)), nil
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleListSources(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}
	sources, err := s.ListSources(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sources: %v", err)), nil
	}
	if sources == nil {
		sources = []string{}
	}
	return jsonResult(sources)
}

// reportResult is what run_report returns: the row counts of the new derived set.
type reportResult struct {
	Source              string `json:"source"`
	RunID               string `json:"run_id"`
	TallBacklog         int    `json:"tall_backlog"`
	RecentlyClosed      int    `json:"recently_closed"`
	RecentlyClosedTasks int    `json:"recently_closed_tasks"`
	Velocity            int    `json:"velocity"`
	Maintenance         int    `json:"maintenance_fractions"`
}

func (h *toolHandler) handleRunReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errRes := requireSource(request)
	if errRes != nil {
		return errRes, nil
	}
	s, errRes := h.store()
	if errRes != nil {
		return errRes, nil
	}

	set, err := h.getPipeline(s).Run(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	return jsonResult(reportResult{
		Source:              set.Source,
		RunID:               set.RunID,
		TallBacklog:         len(set.TallBacklog),
		RecentlyClosed:      len(set.RecentlyClosed),
		RecentlyClosedTasks: len(set.RecentlyClosedTasks),
		Velocity:            len(set.Velocity),
		Maintenance:         len(set.MaintenanceFractions),
	})
}
