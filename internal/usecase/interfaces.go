package usecase

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/i2y/fdamcp/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	ErrToolNotFound = errors.New("tool not found")
)

// OpenFDAClient performs a single search request against an openFDA endpoint.
type OpenFDAClient interface {
	Search(ctx context.Context, endpoint domain.Endpoint, params domain.SearchParams) (*domain.SearchResponse, error)
}

// ArgumentValidator checks tool arguments against the tool's input schema.
type ArgumentValidator interface {
	Validate(schema *jsonschema.Schema, args map[string]any) error
}

// ToolRepository stores the tool catalog.
type ToolRepository interface {
	// Save stores tool definitions, replacing definitions with the same name.
	Save(ctx context.Context, tools []domain.Tool) error

	// List retrieves all stored tools in the order they were first saved.
	List(ctx context.Context) ([]domain.Tool, error)

	// FindToolByName retrieves a tool definition by name, or ErrToolNotFound.
	FindToolByName(ctx context.Context, name domain.ToolName) (*domain.Tool, error)
}
