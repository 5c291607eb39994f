package schemavalidator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	compiler "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/i2y/fdamcp/internal/domain"
)

const schemaURL = "mem://tool-input.json"

// Validator implements the usecase.ArgumentValidator interface with jsonschema/v6.
//
// Upper bounds ("maximum") in the advertised schemas are not enforced: an oversized limit
// is capped before the upstream request instead of being rejected.
type Validator struct {
	mu       sync.Mutex
	compiled map[*jsonschema.Schema]*compiler.Schema
	logger   *slog.Logger
}

// New creates a new Validator.
func New(logger *slog.Logger) *Validator {
	return &Validator{
		compiled: make(map[*jsonschema.Schema]*compiler.Schema),
		logger:   logger.With("component", "schema_validator"),
	}
}

// Validate checks args against schema and returns a validation error describing the
// first violations.
func (v *Validator) Validate(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	sch, err := v.compile(schema)
	if err != nil {
		v.logger.Error("Failed to compile input schema", slog.Any("error", err))
		return fmt.Errorf("failed to compile input schema: %w", err)
	}

	instance, err := toInstance(args)
	if err != nil {
		return domain.Validation("invalid_arguments", fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := sch.Validate(instance); err != nil {
		return domain.Validation("invalid_arguments", fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func (v *Validator) compile(schema *jsonschema.Schema) (*compiler.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sch, ok := v.compiled[schema]; ok {
		return sch, nil
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := compiler.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	dropMaximum(doc)

	c := compiler.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, err
	}
	v.compiled[schema] = sch
	v.logger.Debug("Compiled input schema")
	return sch, nil
}

// dropMaximum removes "maximum" keywords from the top-level properties.
func dropMaximum(doc any) {
	root, ok := doc.(map[string]any)
	if !ok {
		return
	}
	props, ok := root["properties"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range props {
		if prop, ok := p.(map[string]any); ok {
			delete(prop, "maximum")
		}
	}
}

// toInstance converts args into the generic JSON form the compiler validates.
func toInstance(args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return compiler.UnmarshalJSON(bytes.NewReader(b))
}
