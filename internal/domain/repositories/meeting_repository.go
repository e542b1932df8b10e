package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// CreateIfAbsent inserts a meeting unless one already exists for its
	// (platform, native_meeting_id) pair. Returns true when a row was created.
	CreateIfAbsent(ctx context.Context, meeting *entities.Meeting) (bool, error)

	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindByStatus retrieves meetings in the given status, optionally filtered
	// by the instant flag, ordered by scheduled_at ascending
	FindByStatus(ctx context.Context, status entities.MeetingStatus, isInstant *bool, limit int) ([]*entities.Meeting, error)

	// FindAwaitingTranscript retrieves bot_joined meetings whose end time is
	// recorded and that have no transcript row yet
	FindAwaitingTranscript(ctx context.Context, limit int) ([]*entities.Meeting, error)

	// AdvanceStatus conditionally moves a meeting from the expected prior
	// status to the next one, applying any extra column updates in the same
	// statement. Returns false when the row was not in the expected status,
	// which means another invocation already claimed it.
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to entities.MeetingStatus, extra map[string]interface{}) (bool, error)

	// ResetForReprocess moves a terminally failed meeting back to the given
	// status so the pipeline picks it up again. Operator action only.
	ResetForReprocess(ctx context.Context, id uuid.UUID, to entities.MeetingStatus) (bool, error)
}
