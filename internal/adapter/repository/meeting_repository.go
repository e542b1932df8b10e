package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// CreateIfAbsent inserts a meeting, relying on the unique index over
// (platform, native_meeting_id) to make repeated calendar scans idempotent
func (r *meetingRepository) CreateIfAbsent(ctx context.Context, meeting *entities.Meeting) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "native_meeting_id"}},
			DoNothing: true,
		}).
		Create(meeting)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// FindByStatus retrieves meetings in the given status, oldest scheduled first
func (r *meetingRepository) FindByStatus(ctx context.Context, status entities.MeetingStatus, isInstant *bool, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("scheduled_at ASC")
	if isInstant != nil {
		query = query.Where("is_instant = ?", *isInstant)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&meetings).Error
	return meetings, err
}

// FindAwaitingTranscript retrieves ended bot_joined meetings. Meetings that
// already have a transcript row are included on purpose: the retriever
// advances them without re-polling the vendor, which recovers a crash
// between the transcript insert and the status update.
func (r *meetingRepository) FindAwaitingTranscript(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	query := r.db.WithContext(ctx).
		Where("status = ?", entities.MeetingStatusBotJoined).
		Where("ended_at IS NOT NULL AND ended_at <= ?", time.Now().UTC()).
		Order("ended_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&meetings).Error
	return meetings, err
}

// AdvanceStatus performs the optimistic status transition. The WHERE clause
// on the prior status is what makes overlapping stage invocations safe:
// only one of them observes RowsAffected > 0.
func (r *meetingRepository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to entities.MeetingStatus, extra map[string]interface{}) (bool, error) {
	if !from.CanTransition(to) {
		return false, entities.ErrIllegalTransition(from, to)
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ResetForReprocess moves a terminally failed meeting back into the pipeline
func (r *meetingRepository) ResetForReprocess(ctx context.Context, id uuid.UUID, to entities.MeetingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, []entities.MeetingStatus{
			entities.MeetingStatusFailed,
			entities.MeetingStatusFailedProcessing,
		}).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
