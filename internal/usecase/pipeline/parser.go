package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// ParseAnalysis decodes and validates the analysis collaborator's JSON
// output. Anything that fails here is fatal for the meeting: re-running the
// same model on the same input is unlikely to self-correct.
func ParseAnalysis(content string) (*entities.AnalysisResult, error) {
	content = strings.TrimSpace(content)

	// Models occasionally wrap JSON mode output in a code fence anyway
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("analysis output is not valid JSON: %w", err)
	}

	if strings.TrimSpace(result.Summary) == "" {
		return nil, fmt.Errorf("analysis output missing summary")
	}
	if !result.Sentiment.Valid() {
		return nil, fmt.Errorf("analysis output has unrecognized sentiment %q", result.Sentiment)
	}
	if result.SentimentScore < 0 || result.SentimentScore > 1 {
		return nil, fmt.Errorf("analysis sentiment score %v outside [0, 1]", result.SentimentScore)
	}
	for i, item := range result.ActionItems {
		if strings.TrimSpace(item.TaskDescription) == "" {
			return nil, fmt.Errorf("action item %d missing task description", i)
		}
	}

	if result.KeyTopics == nil {
		result.KeyTopics = []string{}
	}
	if result.ActionItems == nil {
		result.ActionItems = []entities.ActionItemData{}
	}

	return &result, nil
}
