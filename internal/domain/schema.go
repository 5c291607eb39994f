package domain

// ToolName identifies one of the callable tools. The set is closed; use ParseToolName to
// convert untrusted input.
type ToolName string

const (
	ToolSearchDrugEvents  ToolName = "search_drug_events"
	ToolGetDrugLabelInfo  ToolName = "get_drug_label_info"
	ToolSearchDrugRecalls ToolName = "search_drug_recalls"
)

// ParseToolName returns the ToolName for name, or a validation error "Unknown tool: <name>".
func ParseToolName(name string) (ToolName, error) {
	switch t := ToolName(name); t {
	case ToolSearchDrugEvents, ToolGetDrugLabelInfo, ToolSearchDrugRecalls:
		return t, nil
	}
	return "", unknownTool(name)
}

// ResourceURI identifies one of the read-only resources.
type ResourceURI string

const (
	ResourceRecentDrugEvents  ResourceURI = "fda://drug-events/recent"
	ResourcePopularDrugLabels ResourceURI = "fda://drug-labels/popular"
	ResourceRecentRecalls     ResourceURI = "fda://recalls/recent"
)

// ParseResourceURI returns the ResourceURI for uri, or a validation error.
func ParseResourceURI(uri string) (ResourceURI, error) {
	switch r := ResourceURI(uri); r {
	case ResourceRecentDrugEvents, ResourcePopularDrugLabels, ResourceRecentRecalls:
		return r, nil
	}
	return "", unknownResource(uri)
}

// PromptName identifies one of the prompt generators.
type PromptName string

const (
	PromptAnalyzeDrugSafety PromptName = "analyze_drug_safety"
	PromptDrugComparison    PromptName = "drug_comparison"
)

// ParsePromptName returns the PromptName for name, or a validation error.
func ParsePromptName(name string) (PromptName, error) {
	switch p := PromptName(name); p {
	case PromptAnalyzeDrugSafety, PromptDrugComparison:
		return p, nil
	}
	return "", unknownPrompt(name)
}

// Endpoint is an openFDA search endpoint path relative to the API base URL.
type Endpoint string

const (
	EndpointDrugEvent       Endpoint = "/drug/event.json"
	EndpointDrugLabel       Endpoint = "/drug/label.json"
	EndpointDrugEnforcement Endpoint = "/drug/enforcement.json"
)
