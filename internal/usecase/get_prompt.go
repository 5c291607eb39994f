package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/i2y/fdamcp/internal/domain"
)

const defaultFocusArea = "general safety"

// PromptResult is a rendered prompt: a description and the text of a single user message.
type PromptResult struct {
	Description string
	Text        string
}

// GetPromptUseCase renders the prompt templates. It performs no I/O.
type GetPromptUseCase struct {
	logger *slog.Logger
}

// NewGetPromptUseCase creates a new GetPromptUseCase.
func NewGetPromptUseCase(logger *slog.Logger) *GetPromptUseCase {
	return &GetPromptUseCase{logger: logger.With("usecase", "GetPrompt")}
}

// Execute renders the named prompt with args.
func (uc *GetPromptUseCase) Execute(promptName string, args map[string]string) (*PromptResult, error) {
	name, err := domain.ParsePromptName(promptName)
	if err != nil {
		uc.logger.Warn("Rejected unknown prompt", slog.String("prompt", promptName))
		return nil, err
	}

	switch name {
	case domain.PromptAnalyzeDrugSafety:
		drug, ok := args["drug_name"]
		if !ok {
			return nil, domain.MissingArgument("drug_name")
		}
		focus, ok := args["focus_area"]
		if !ok {
			focus = defaultFocusArea
		}
		return &PromptResult{
			Description: "Safety analysis prompt for " + drug,
			Text:        safetyAnalysisText(drug, focus),
		}, nil
	case domain.PromptDrugComparison:
		list, ok := args["drug_list"]
		if !ok {
			return nil, domain.MissingArgument("drug_list")
		}
		drugs := strings.Join(SplitDrugList(list), ", ")
		return &PromptResult{
			Description: "Comparative analysis prompt for: " + drugs,
			Text:        comparisonText(drugs),
		}, nil
	}
	return nil, fmt.Errorf("prompt %s has no handler", name)
}

// SplitDrugList splits a comma-separated list and trims each entry. Order is kept and
// empty entries are not removed.
func SplitDrugList(list string) []string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func safetyAnalysisText(drug, focus string) string {
	return fmt.Sprintf(`Please analyze the safety profile of %[1]s focusing on %[2]s.

Use the FDA MCP server tools to gather comprehensive data:

1. Search for adverse event reports for %[1]s
2. Get drug labeling information for %[1]s
3. Check for any recalls or enforcement actions for %[1]s

Based on this data, provide:
- Summary of reported adverse events and their frequency
- Analysis of warnings and precautions from labeling
- Any recall history and reasons
- Risk-benefit assessment
- Recommendations for monitoring

Please ensure your analysis is evidence-based and cite specific FDA data sources.`, drug, focus)
}

func comparisonText(drugs string) string {
	return fmt.Sprintf(`Please compare the safety profiles of the following drugs: %s

For each drug, use the FDA MCP server tools to gather:
1. Adverse event data
2. Drug labeling information
3. Recall history

Create a comparative analysis including:
- Side effect profiles comparison
- Relative safety rankings
- Different risk factors for each drug
- Contraindications and warnings comparison
- Historical recall patterns

Present the comparison in a clear, structured format that helps understand the relative risks and benefits of each medication.`, drugs)
}
