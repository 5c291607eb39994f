package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/i2y/fdamcp/internal/domain"
)

// InvokeToolUseCase validates a tool call and runs it against openFDA.
type InvokeToolUseCase struct {
	repository ToolRepository
	validator  ArgumentValidator
	client     OpenFDAClient
	logger     *slog.Logger
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase.
func NewInvokeToolUseCase(repo ToolRepository, validator ArgumentValidator, client OpenFDAClient, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		repository: repo,
		validator:  validator,
		client:     client,
		logger:     logger.With("usecase", "InvokeTool"),
	}
}

// Execute resolves the tool by name, validates the arguments against its input schema
// and returns the tool's result envelope.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, args map[string]any) (any, error) {
	log := uc.logger.With(slog.String("tool_name", toolName))
	log.Info("Executing tool invocation")

	name, err := domain.ParseToolName(toolName)
	if err != nil {
		log.Warn("Rejected unknown tool")
		return nil, err
	}

	tool, err := uc.repository.FindToolByName(ctx, name)
	if err != nil {
		log.Error("Tool definition not found", slog.Any("error", err))
		return nil, fmt.Errorf("tool '%s' definition not found: %w", toolName, err)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := uc.validator.Validate(tool.InputSchema, args); err != nil {
		log.Warn("Invalid tool arguments", slog.Any("error", err), slog.Any("arguments", args))
		return nil, err
	}

	var result any
	switch name {
	case domain.ToolSearchDrugEvents:
		var q domain.EventQuery
		if err := decodeArguments(args, &q); err != nil {
			return nil, err
		}
		result, err = uc.searchDrugEvents(ctx, q)
	case domain.ToolGetDrugLabelInfo:
		var q domain.LabelQuery
		if err := decodeArguments(args, &q); err != nil {
			return nil, err
		}
		result, err = uc.getDrugLabelInfo(ctx, q)
	case domain.ToolSearchDrugRecalls:
		var q domain.RecallQuery
		if err := decodeArguments(args, &q); err != nil {
			return nil, err
		}
		result, err = uc.searchDrugRecalls(ctx, q)
	default:
		// Reachable only if a ToolName is added without a case here.
		return nil, fmt.Errorf("tool %s has no handler", name)
	}
	if err != nil {
		log.Error("Tool invocation failed", slog.Any("error", err))
		return nil, err
	}

	log.Info("Tool invocation successful")
	return result, nil
}

func (uc *InvokeToolUseCase) searchDrugEvents(ctx context.Context, q domain.EventQuery) (domain.EventsResult, error) {
	params, err := q.SearchParams()
	if err != nil {
		return domain.EventsResult{}, err
	}
	resp, err := uc.client.Search(ctx, domain.EndpointDrugEvent, params)
	if err != nil {
		return domain.EventsResult{}, fmt.Errorf("failed to search adverse events: %w", err)
	}
	return domain.EventsResult{
		TotalResults: resp.Total,
		Events:       project(resp.Results, q.RequestedLimit(), domain.ProjectEvent),
	}, nil
}

func (uc *InvokeToolUseCase) getDrugLabelInfo(ctx context.Context, q domain.LabelQuery) (domain.LabelsResult, error) {
	resp, err := uc.client.Search(ctx, domain.EndpointDrugLabel, q.SearchParams())
	if err != nil {
		return domain.LabelsResult{}, fmt.Errorf("failed to search drug labels: %w", err)
	}
	return domain.LabelsResult{
		TotalResults: resp.Total,
		Labels:       project(resp.Results, q.RequestedLimit(), domain.ProjectLabel),
	}, nil
}

func (uc *InvokeToolUseCase) searchDrugRecalls(ctx context.Context, q domain.RecallQuery) (domain.RecallsResult, error) {
	resp, err := uc.client.Search(ctx, domain.EndpointDrugEnforcement, q.SearchParams())
	if err != nil {
		return domain.RecallsResult{}, fmt.Errorf("failed to search drug recalls: %w", err)
	}
	return domain.RecallsResult{
		TotalResults: resp.Total,
		Recalls:      project(resp.Results, q.RequestedLimit(), domain.ProjectRecall),
	}, nil
}

// project truncates docs to the caller's requested limit and reduces each one.
func project[T any](docs []map[string]any, limit int, fn func(map[string]any) T) []T {
	docs = domain.Truncate(docs, limit)
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, fn(d))
	}
	return out
}

// decodeArguments copies validated arguments into a typed query.
func decodeArguments(args map[string]any, dst any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return domain.Validation("invalid_arguments", fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return domain.Validation("invalid_arguments", fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}
