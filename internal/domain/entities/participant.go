package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingParticipant is one attendee's aggregated contribution to a meeting,
// built by correlating vendor participant metadata with transcript speaker
// labels. The correlation is best-effort; a participant row may carry zero
// matched segments when naming differs between the two sources.
type MeetingParticipant struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID            uuid.UUID           `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Name                 string              `gorm:"type:varchar(255);not null" json:"name"`
	Email                *string             `gorm:"type:varchar(255)" json:"email,omitempty"`
	SpeakingTimeSeconds  int                 `json:"speaking_time_seconds"`
	WordCount            int                 `json:"word_count"`
	MatchedSegments      []TranscriptSegment `gorm:"type:jsonb;serializer:json" json:"matched_segments,omitempty"`
	SegmentCount         int                 `json:"segment_count"`
	FirstSpokeAtSeconds  *float64            `json:"first_spoke_at_seconds,omitempty"`
	LastSpokeAtSeconds   *float64            `json:"last_spoke_at_seconds,omitempty"`
	CreatedAt            time.Time           `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for MeetingParticipant
func (MeetingParticipant) TableName() string {
	return "meeting_participants"
}

// AttachSegments records the matched transcript segments and derived speaking bounds
func (p *MeetingParticipant) AttachSegments(segments []TranscriptSegment, wordCount int) {
	p.MatchedSegments = segments
	p.SegmentCount = len(segments)
	p.WordCount = wordCount

	if len(segments) == 0 {
		return
	}
	first := segments[0].StartTime
	last := segments[0].EndTime
	for _, seg := range segments[1:] {
		if seg.StartTime < first {
			first = seg.StartTime
		}
		if seg.EndTime > last {
			last = seg.EndTime
		}
	}
	p.FirstSpokeAtSeconds = &first
	p.LastSpokeAtSeconds = &last
}
