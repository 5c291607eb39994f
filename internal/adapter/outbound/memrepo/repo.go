package memrepo

import (
	"context"
	"log/slog"
	"sync"

	"github.com/i2y/fdamcp/internal/domain"
	"github.com/i2y/fdamcp/internal/usecase"
)

// InMemoryToolRepository provides an in-memory implementation of the ToolRepository.
// The catalog is static, so nothing is persisted.
type InMemoryToolRepository struct {
	mu     sync.RWMutex
	tools  map[domain.ToolName]domain.Tool
	order  []domain.ToolName // insertion order, used by List
	logger *slog.Logger
}

// NewInMemoryToolRepository creates a new in-memory repository.
func NewInMemoryToolRepository(logger *slog.Logger) *InMemoryToolRepository {
	return &InMemoryToolRepository{
		tools:  make(map[domain.ToolName]domain.Tool),
		logger: logger.With("component", "mem_repo"),
	}
}

// Save stores the given tools. A tool whose name is already stored replaces the earlier
// definition but keeps its position.
func (r *InMemoryToolRepository) Save(ctx context.Context, tools []domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i, tool := range tools {
		if tool.Name == "" {
			r.logger.Warn("Skipping tool with empty name during save", slog.Int("index", i))
			continue
		}
		if _, exists := r.tools[tool.Name]; !exists {
			r.order = append(r.order, tool.Name)
		}
		r.tools[tool.Name] = tool
		count++
	}
	r.logger.Info("Saved tools", slog.Int("count", count), slog.Int("total_tools", len(r.tools)))
	return nil
}

// List returns all stored tools in the order they were first saved.
func (r *InMemoryToolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	r.logger.Debug("Listed tools from repository", slog.Int("count", len(list)))
	return list, nil
}

// FindToolByName retrieves a tool definition by its name.
func (r *InMemoryToolRepository) FindToolByName(ctx context.Context, name domain.ToolName) (*domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		r.logger.Warn("Tool definition not found", slog.String("tool_name", string(name)))
		return nil, usecase.ErrToolNotFound
	}
	r.logger.Debug("Found tool definition", slog.String("tool_name", string(name)))
	return &tool, nil
}
