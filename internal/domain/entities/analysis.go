package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingSentiment is the overall tone label the analysis collaborator assigns
type MeetingSentiment string

const (
	SentimentPositive MeetingSentiment = "Positive"
	SentimentNeutral  MeetingSentiment = "Neutral"
	SentimentNegative MeetingSentiment = "Negative"
)

// Valid reports whether s is one of the three recognized sentiment labels
func (s MeetingSentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// ActionItemData is one action item as returned by the analysis collaborator
type ActionItemData struct {
	TaskDescription string `json:"taskDescription"`
	Owner           string `json:"owner"`
	VerbatimQuote   string `json:"verbatimQuote"`
}

// AnalysisResult is the structured output contract of the analysis
// collaborator. Parsing rejects payloads that do not satisfy it; the
// pipeline never persists partial analysis data.
type AnalysisResult struct {
	Summary        string           `json:"summary"`
	Sentiment      MeetingSentiment `json:"sentiment"`
	SentimentScore float64          `json:"sentimentScore"`
	KeyTopics      []string         `json:"keyTopics"`
	ActionItems    []ActionItemData `json:"actionItems"`
}

// MeetingSummary is the persisted analysis for one meeting, 1:1 with meetings
type MeetingSummary struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"meeting_id"`
	Summary          string           `gorm:"type:text;not null" json:"summary"`
	Sentiment        MeetingSentiment `gorm:"type:varchar(16);not null" json:"sentiment"`
	SentimentScore   float64          `json:"sentiment_score"`
	KeyTopics        []string         `gorm:"type:jsonb;serializer:json" json:"key_topics"`
	ModelUsed        string           `gorm:"type:varchar(100)" json:"model_used,omitempty"`
	ProcessingTimeMS int              `json:"processing_time_ms,omitempty"`
	RawResponse      datatypes.JSON   `gorm:"type:jsonb" json:"raw_response,omitempty"`
	CreatedAt        time.Time        `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for MeetingSummary
func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}

// NewMeetingSummary builds a persisted summary from an analysis result
func NewMeetingSummary(meetingID uuid.UUID, result *AnalysisResult) *MeetingSummary {
	return &MeetingSummary{
		ID:             uuid.New(),
		MeetingID:      meetingID,
		Summary:        result.Summary,
		Sentiment:      result.Sentiment,
		SentimentScore: result.SentimentScore,
		KeyTopics:      result.KeyTopics,
	}
}

// ActionItemStatus tracks the lifecycle of an extracted action item
type ActionItemStatus string

const (
	ActionItemStatusPending   ActionItemStatus = "pending"
	ActionItemStatusCompleted ActionItemStatus = "completed"
)

// ActionItem is one task extracted from a meeting's analysis
type ActionItem struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"meeting_id"`
	SummaryID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"summary_id"`
	TaskDescription string           `gorm:"type:text;not null" json:"task_description"`
	Owner           string           `gorm:"type:varchar(255);not null" json:"owner"`
	VerbatimQuote   string           `gorm:"type:text" json:"verbatim_quote"`
	Status          ActionItemStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time        `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for ActionItem
func (ActionItem) TableName() string {
	return "action_items"
}

// ActionItemsFromResult converts collaborator action items into persisted rows
func ActionItemsFromResult(meetingID, summaryID uuid.UUID, result *AnalysisResult) []*ActionItem {
	items := make([]*ActionItem, 0, len(result.ActionItems))
	for _, data := range result.ActionItems {
		items = append(items, &ActionItem{
			ID:              uuid.New(),
			MeetingID:       meetingID,
			SummaryID:       summaryID,
			TaskDescription: data.TaskDescription,
			Owner:           data.Owner,
			VerbatimQuote:   data.VerbatimQuote,
			Status:          ActionItemStatusPending,
		})
	}
	return items
}
