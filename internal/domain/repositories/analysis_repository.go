package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// AnalysisRepository defines the interface for meeting summary and action item data access
type AnalysisRepository interface {
	// SaveAnalysis inserts a meeting summary and its action items in one
	// transaction; at most one summary exists per meeting. Atomicity matters
	// because SummaryExists is the idempotence guard for the whole analysis:
	// a summary without its items would never be revisited.
	SaveAnalysis(ctx context.Context, summary *entities.MeetingSummary, items []*entities.ActionItem) error

	// SummaryExists reports whether a summary row exists for the meeting
	SummaryExists(ctx context.Context, meetingID uuid.UUID) (bool, error)

	// FindSummaryByMeetingID retrieves the summary for a meeting, nil when absent
	FindSummaryByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingSummary, error)
}

// UserRepository defines the interface for user data access.
// The pipeline reads credentials and writes refreshed calendar tokens;
// it never creates or deletes users.
type UserRepository interface {
	// FindMonitored retrieves users with monitoring enabled and a calendar token on file
	FindMonitored(ctx context.Context) ([]*entities.User, error)

	// FindByID retrieves a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// UpdateCalendarToken persists a refreshed OAuth token blob
	UpdateCalendarToken(ctx context.Context, id uuid.UUID, tokenJSON []byte) error
}

// NotificationRepository defines the interface for queued notification data access
type NotificationRepository interface {
	// Create queues a notification
	Create(ctx context.Context, notification *entities.Notification) error

	// MarkSent records successful delivery
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkFailed records a delivery failure
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
