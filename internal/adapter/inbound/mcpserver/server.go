package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/i2y/fdamcp/internal/domain"
	"github.com/i2y/fdamcp/internal/usecase"
)

const (
	// ServerName is the identity reported during MCP initialization.
	ServerName = "fda-drug-approvals"
	// ServerVersion is the version reported during MCP initialization.
	ServerVersion = "1.0.0"
)

// Handlers adapts the use cases to mcp-go handler functions.
type Handlers struct {
	serveTools   *usecase.ServeToolsUseCase
	invokeTool   *usecase.InvokeToolUseCase
	readResource *usecase.ReadResourceUseCase
	getPrompt    *usecase.GetPromptUseCase
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(
	serveTools *usecase.ServeToolsUseCase,
	invokeTool *usecase.InvokeToolUseCase,
	readResource *usecase.ReadResourceUseCase,
	getPrompt *usecase.GetPromptUseCase,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		serveTools:   serveTools,
		invokeTool:   invokeTool,
		readResource: readResource,
		getPrompt:    getPrompt,
		logger:       logger.With("component", "mcpserver"),
	}
}

// NewServer creates an MCP server with tool, resource and prompt capabilities, request
// logging hooks and panic recovery.
func NewServer(logger *slog.Logger) *server.MCPServer {
	log := logger.With("component", "mcpserver")

	hooks := &server.Hooks{}
	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		log.Debug("Received MCP request", slog.Any("id", id), slog.String("method", string(method)))
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		log.Error("MCP request failed", slog.Any("id", id), slog.String("method", string(method)), slog.Any("error", err))
	})

	return server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)
}

// Register adds the tool, resource and prompt catalogs to s.
func (h *Handlers) Register(ctx context.Context, s *server.MCPServer) error {
	tools, err := h.serveTools.Execute(ctx)
	if err != nil {
		return err
	}
	for _, tool := range tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return fmt.Errorf("failed to marshal input schema for tool %s: %w", tool.Name, err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(string(tool.Name), tool.Description, schema), h.handleCallTool)
		h.logger.Debug("Registered tool", slog.String("tool_name", string(tool.Name)))
	}

	for _, res := range domain.Resources() {
		s.AddResource(mcp.NewResource(
			string(res.URI),
			res.Name,
			mcp.WithResourceDescription(res.Description),
			mcp.WithMIMEType(res.MIMEType),
		), h.handleReadResource)
		h.logger.Debug("Registered resource", slog.String("uri", string(res.URI)))
	}

	for _, p := range domain.Prompts() {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(p.Description)}
		for _, arg := range p.Arguments {
			argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(arg.Description)}
			if arg.Required {
				argOpts = append(argOpts, mcp.RequiredArgument())
			}
			opts = append(opts, mcp.WithArgument(arg.Name, argOpts...))
		}
		s.AddPrompt(mcp.NewPrompt(string(p.Name), opts...), h.handleGetPrompt)
		h.logger.Debug("Registered prompt", slog.String("prompt_name", string(p.Name)))
	}

	h.logger.Info("Registered MCP catalog",
		slog.Int("tools", len(tools)),
		slog.Int("resources", len(domain.Resources())),
		slog.Int("prompts", len(domain.Prompts())))
	return nil
}

// CallTool runs a tool and renders the outcome as result text. Failures of any kind,
// including unknown tool names, come back as "Error: <message>" with isError set.
func (h *Handlers) CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool) {
	log := h.logger.With(slog.String("call_id", uuid.NewString()), slog.String("tool_name", name))

	result, err := h.invokeTool.Execute(ctx, name, args)
	if err != nil {
		log.Error("Tool call failed", slog.Any("error", err))
		return "Error: " + err.Error(), true
	}
	out, err := encode(result)
	if err != nil {
		log.Error("Failed to encode tool result", slog.Any("error", err))
		return "Error: " + err.Error(), true
	}
	log.Debug("Tool call succeeded", slog.Int("bytes", len(out)))
	return string(out), false
}

func (h *Handlers) handleCallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, isError := h.CallTool(ctx, request.Params.Name, request.GetArguments())
	if isError {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (h *Handlers) handleReadResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	log := h.logger.With(slog.String("call_id", uuid.NewString()), slog.String("uri", uri))

	text, err := h.renderResource(ctx, uri)
	if err != nil {
		log.Error("Resource read failed", slog.Any("error", err))
		text = "Error reading resource: " + err.Error()
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func (h *Handlers) renderResource(ctx context.Context, uri string) (string, error) {
	doc, err := h.readResource.Execute(ctx, uri)
	if err != nil {
		return "", err
	}
	out, err := encode(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode resource: %w", err)
	}
	return string(out), nil
}

func (h *Handlers) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	log := h.logger.With(slog.String("call_id", uuid.NewString()), slog.String("prompt_name", name))

	res, err := h.getPrompt.Execute(name, request.Params.Arguments)
	if err != nil {
		log.Error("Prompt generation failed", slog.Any("error", err))
		return mcp.NewGetPromptResult("Error getting prompt", []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent("Error: "+err.Error())),
		}), nil
	}
	return mcp.NewGetPromptResult(res.Description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(res.Text)),
	}), nil
}

// encode renders v as JSON indented by two spaces, leaving HTML characters in label
// text unescaped.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
