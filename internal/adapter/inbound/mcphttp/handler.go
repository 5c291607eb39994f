package mcphttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i2y/fdamcp/pkg/shared/mcpjsonrpc"
)

// ToolCaller runs a tool and returns its rendered result text.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool)
}

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	tools  ToolCaller
	logger *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(tools ToolCaller, logger *slog.Logger) *Handlers {
	return &Handlers{
		tools:  tools,
		logger: logger.With("component", "mcphttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/healthz", h.handleHealthz)
	mux.HandleFunc("POST /admin/tools/call", h.handleCallTool)
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

// handleCallTool implements POST /admin/tools/call. Tool failures are returned as results
// with is_error set; only malformed requests produce JSON-RPC errors.
func (h *Handlers) handleCallTool(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req mcpjsonrpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode tool call request body", slog.Any("error", err))
		h.writeResponse(w, http.StatusBadRequest, mcpjsonrpc.NewError(nil, mcpjsonrpc.CodeParseError, fmt.Sprintf("Parse error: %v", err)))
		return
	}
	if req.Version != "2.0" {
		h.writeResponse(w, http.StatusBadRequest, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidRequest, "Invalid Request: jsonrpc must be \"2.0\""))
		return
	}
	if req.Method != mcpjsonrpc.MethodCallTool {
		h.writeResponse(w, http.StatusBadRequest, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method)))
		return
	}

	var params mcpjsonrpc.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			h.writeResponse(w, http.StatusBadRequest, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, fmt.Sprintf("Invalid params: %v", err)))
			return
		}
	}
	if params.Name == "" {
		h.writeResponse(w, http.StatusBadRequest, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, "Invalid params: missing 'name'"))
		return
	}

	h.logger.Info("Received admin tool call", slog.String("tool_name", params.Name))
	text, isError := h.tools.CallTool(r.Context(), params.Name, params.Arguments)
	h.writeResponse(w, http.StatusOK, mcpjsonrpc.Response{
		Version: "2.0",
		Result:  mcpjsonrpc.CallToolResult{Content: text, IsError: isError},
		ID:      req.ID,
	})
}

func (h *Handlers) writeResponse(w http.ResponseWriter, status int, resp mcpjsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to write response", slog.Any("error", err))
	}
}
