package pipeline

import (
	"testing"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

const validAnalysisJSON = `{
	"summary": "The team reviewed the roadmap and agreed on two launches.",
	"sentiment": "Positive",
	"sentimentScore": 0.8,
	"keyTopics": ["roadmap", "launches"],
	"actionItems": [
		{"taskDescription": "Draft the launch plan", "owner": "Alice", "verbatimQuote": "I will draft the launch plan"}
	]
}`

func TestParseAnalysisValid(t *testing.T) {
	result, err := ParseAnalysis(validAnalysisJSON)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if result.Sentiment != entities.SentimentPositive {
		t.Errorf("sentiment = %q", result.Sentiment)
	}
	if len(result.KeyTopics) != 2 || len(result.ActionItems) != 1 {
		t.Errorf("topics %d items %d", len(result.KeyTopics), len(result.ActionItems))
	}
	if result.ActionItems[0].Owner != "Alice" {
		t.Errorf("owner = %q", result.ActionItems[0].Owner)
	}
}

func TestParseAnalysisStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validAnalysisJSON + "\n```"
	result, err := ParseAnalysis(fenced)
	if err != nil {
		t.Fatalf("ParseAnalysis on fenced output: %v", err)
	}
	if result.Summary == "" {
		t.Error("summary lost while stripping fence")
	}
}

func TestParseAnalysisNormalizesNilSlices(t *testing.T) {
	result, err := ParseAnalysis(`{"summary": "Short call.", "sentiment": "Neutral", "sentimentScore": 0.5}`)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if result.KeyTopics == nil || result.ActionItems == nil {
		t.Error("absent arrays should decode to empty slices")
	}
}

func TestParseAnalysisRejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "the meeting went well"},
		{"empty summary", `{"summary": " ", "sentiment": "Neutral", "sentimentScore": 0.5}`},
		{"bad sentiment", `{"summary": "ok", "sentiment": "Ecstatic", "sentimentScore": 0.5}`},
		{"score too high", `{"summary": "ok", "sentiment": "Neutral", "sentimentScore": 1.5}`},
		{"score negative", `{"summary": "ok", "sentiment": "Neutral", "sentimentScore": -0.1}`},
		{"blank action item", `{"summary": "ok", "sentiment": "Neutral", "sentimentScore": 0.5, "actionItems": [{"taskDescription": ""}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseAnalysis(c.content); err == nil {
				t.Errorf("ParseAnalysis accepted %s", c.name)
			}
		})
	}
}
