package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// TranscriptRepository defines the interface for transcript data access
type TranscriptRepository interface {
	// Create inserts a transcript; at most one exists per meeting
	Create(ctx context.Context, transcript *entities.Transcript) error

	// FindByMeetingID retrieves the transcript for a meeting, nil when absent
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)

	// ExistsForMeeting reports whether a transcript row exists for the meeting
	ExistsForMeeting(ctx context.Context, meetingID uuid.UUID) (bool, error)
}

// ParticipantRepository defines the interface for meeting participant data access
type ParticipantRepository interface {
	// CreateBatch inserts all participant rows for one meeting
	CreateBatch(ctx context.Context, participants []*entities.MeetingParticipant) error

	// FindByMeetingID retrieves all participants of a meeting
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingParticipant, error)

	// CountByMeetingID counts participant rows for a meeting
	CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error)
}
