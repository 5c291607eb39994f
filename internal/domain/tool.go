package domain

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is the definition of a callable tool as advertised to MCP clients.
type Tool struct {
	Name        ToolName
	Description string
	// InputSchema is the JSON schema the arguments are validated against before dispatch.
	InputSchema *jsonschema.Schema
}

// Resource describes a read-only resource.
type Resource struct {
	URI         ResourceURI
	Name        string
	Description string
	MIMEType    string
}

// PromptArgument describes one argument of a prompt generator.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// Prompt describes a prompt generator.
type Prompt struct {
	Name        PromptName
	Description string
	Arguments   []PromptArgument
}

// Classifications lists the accepted recall classification values.
var Classifications = []string{"Class I", "Class II", "Class III"}

// Tools returns the tool catalog in advertised order.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolSearchDrugEvents,
			Description: "Search FDA adverse event reports for drugs",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"drug_name": {Type: "string", Description: "Name of the drug to search for"},
					"limit":     limitSchema("Maximum number of results (1-1000)", MaxEventLimit, DefaultEventLimit),
					"date_range": {
						Type:        "string",
						Description: "Date range in format YYYYMMDD_to_YYYYMMDD",
						Pattern:     `^\d{8}_to_\d{8}$`,
					},
				},
				Required: []string{"drug_name"},
			},
		},
		{
			Name:        ToolGetDrugLabelInfo,
			Description: "Get drug labeling information from FDA",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"drug_name": {Type: "string", Description: "Name of the drug to get label information for"},
					"limit":     limitSchema("Maximum number of results", MaxLabelLimit, DefaultLabelLimit),
				},
				Required: []string{"drug_name"},
			},
		},
		{
			Name:        ToolSearchDrugRecalls,
			Description: "Search FDA drug enforcement/recall reports",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"drug_name": {Type: "string", Description: "Name of the drug to search recalls for"},
					"classification": {
						Type:        "string",
						Description: "Recall classification (Class I, Class II, Class III)",
						Enum:        []any{Classifications[0], Classifications[1], Classifications[2]},
					},
					"limit": limitSchema("Maximum number of results", MaxRecallLimit, DefaultRecallLimit),
				},
				Required: []string{"drug_name"},
			},
		},
	}
}

func limitSchema(description string, maximum, def int) *jsonschema.Schema {
	lo, hi := 1.0, float64(maximum)
	d, _ := json.Marshal(def)
	return &jsonschema.Schema{
		Type:        "integer",
		Description: description,
		Minimum:     &lo,
		Maximum:     &hi,
		Default:     d,
	}
}

// Resources returns the resource catalog.
func Resources() []Resource {
	return []Resource{
		{
			URI:         ResourceRecentDrugEvents,
			Name:        "Recent Drug Adverse Events",
			Description: "Recent adverse event reports from FDA",
			MIMEType:    "application/json",
		},
		{
			URI:         ResourcePopularDrugLabels,
			Name:        "Popular Drug Labels",
			Description: "Labeling information for commonly searched drugs",
			MIMEType:    "application/json",
		},
		{
			URI:         ResourceRecentRecalls,
			Name:        "Recent Drug Recalls",
			Description: "Recent drug recalls and enforcement actions",
			MIMEType:    "application/json",
		},
	}
}

// Prompts returns the prompt catalog.
func Prompts() []Prompt {
	return []Prompt{
		{
			Name:        PromptAnalyzeDrugSafety,
			Description: "Analyze drug safety data from FDA reports",
			Arguments: []PromptArgument{
				{Name: "drug_name", Description: "Name of the drug to analyze", Required: true},
				{Name: "focus_area", Description: "Specific safety aspect to focus on (side_effects, recalls, interactions)"},
			},
		},
		{
			Name:        PromptDrugComparison,
			Description: "Compare safety profiles of multiple drugs",
			Arguments: []PromptArgument{
				{Name: "drug_list", Description: "Comma-separated list of drugs to compare", Required: true},
			},
		},
	}
}
