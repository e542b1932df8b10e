package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TranscriptSegment is one contiguous speech segment attributed to a speaker label
type TranscriptSegment struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// VendorParticipant is the attendee metadata the transcription vendor
// reports alongside a transcript. Names here are display names and are
// only loosely correlated with segment speaker labels.
type VendorParticipant struct {
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	SpeakingTime float64 `json:"speaking_time"`
}

// Transcript is the stored vendor transcript for one meeting, 1:1 with meetings
type Transcript struct {
	ID              uuid.UUID                                  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID       uuid.UUID                                  `gorm:"type:uuid;not null;uniqueIndex" json:"meeting_id"`
	UserID          uuid.UUID                                  `gorm:"type:uuid;not null;index" json:"user_id"`
	Text            string                                     `gorm:"type:text;not null" json:"text"`
	Segments        []TranscriptSegment                        `gorm:"type:jsonb;serializer:json" json:"segments,omitempty"`
	Participants    []VendorParticipant                        `gorm:"type:jsonb;serializer:json" json:"participants,omitempty"`
	WordCount       int                                        `json:"word_count"`
	DurationSeconds int                                        `json:"duration_seconds"`
	ProcessedAt     time.Time                                  `gorm:"not null" json:"processed_at"`
	RawData         datatypes.JSONType[map[string]interface{}] `gorm:"type:jsonb" json:"raw_data,omitempty"`
	CreatedAt       time.Time                                  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                                  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a transcript owned by the given meeting
func NewTranscript(meetingID, userID uuid.UUID) *Transcript {
	return &Transcript{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		UserID:      userID,
		ProcessedAt: time.Now().UTC(),
	}
}
