package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/quill/internal/config"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/pipeline"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	pipeline *pipeline.Pipeline
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, p *pipeline.Pipeline) *Handlers {
	return &Handlers{db: db, cfg: cfg, pipeline: p}
}

// Request types for each tool

// GenerateRequest represents the arguments for draft_generate.
type GenerateRequest struct {
	Mode           string   `json:"mode"`
	Limit          int      `json:"limit,omitempty"`
	Status         string   `json:"status,omitempty"`
	PostTypes      []string `json:"post_types,omitempty"`
	Platform       string   `json:"platform,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	ConnectionType string   `json:"connection_type,omitempty"`
}

// ListRequest represents the arguments for draft_list.
type ListRequest struct {
	Statuses []string `json:"statuses,omitempty"`
	All      bool     `json:"all,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// IDRequest represents the arguments of tools addressing one draft.
type IDRequest struct {
	ID string `json:"id"`
}

// UpdateTextRequest represents the arguments for draft_update_text.
type UpdateTextRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ScheduleRequest represents the arguments for draft_schedule.
type ScheduleRequest struct {
	ID string `json:"id"`
	At string `json:"at,omitempty"`
}

// AnalyzeRequest represents the arguments for style_analyze.
type AnalyzeRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleGenerate handles the draft_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	var result *pipeline.GenerateOutput
	switch input.Mode {
	case "briefs":
		result, err = h.pipeline.GenerateFromBriefs(ctx, pipeline.BriefsRequest{
			Status:    input.Status,
			PostTypes: input.PostTypes,
			Platform:  input.Platform,
			Limit:     input.Limit,
		})
	case "analysis":
		result, err = h.pipeline.GenerateFromAnalysis(ctx, pipeline.AnalysisRequest{
			Limit: input.Limit,
			Topic: input.Topic,
		})
	case "connection":
		result, err = h.pipeline.GenerateConnection(ctx, pipeline.ConnectionRequest{
			ConnectionType: input.ConnectionType,
		})
	default:
		return errorResult(qerrors.NewInvalidRequest("mode must be one of: briefs, analysis, connection")), nil
	}
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the draft_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Statuses: input.Statuses,
		All:      input.All,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the draft_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleApprove handles the draft_approve tool call.
func (h *Handlers) HandleApprove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.pipeline.Approve(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReject handles the draft_reject tool call.
func (h *Handlers) HandleReject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.pipeline.Reject(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePublish handles the draft_publish tool call.
func (h *Handlers) HandlePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.pipeline.Publish(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdateText handles the draft_update_text tool call.
func (h *Handlers) HandleUpdateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateTextRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateText(ctx, h.db, h.cfg, ops.UpdateTextInput{
		ID:   input.ID,
		Text: input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSchedule handles the draft_schedule tool call.
func (h *Handlers) HandleSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScheduleRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	sched := ops.ScheduleInput{ID: input.ID}
	if at := strings.TrimSpace(input.At); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return errorResult(qerrors.NewInvalidRequest("at must be an RFC 3339 timestamp")), nil
		}
		sched.At = &t
	}

	result, err := ops.Schedule(ctx, h.db, sched)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the draft_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAnalyze handles the style_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(qerrors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.pipeline.Analyze(ctx, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if qErr, ok := qerrors.As(err); ok && qErr.Code != qerrors.ErrInternal {
		errorObj := map[string]any{
			"code":    qErr.Code,
			"message": qErr.Message,
			"status":  qErr.Status,
		}
		if qErr.Details != nil {
			errorObj["details"] = qErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    qerrors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
