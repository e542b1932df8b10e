package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/domain/repositories"
)

// transcriptRepository implements the TranscriptRepository interface
type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) repositories.TranscriptRepository {
	return &transcriptRepository{db: db}
}

// Create inserts a transcript
func (r *transcriptRepository) Create(ctx context.Context, transcript *entities.Transcript) error {
	return r.db.WithContext(ctx).Create(transcript).Error
}

// FindByMeetingID retrieves the transcript for a meeting
func (r *transcriptRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// ExistsForMeeting reports whether a transcript row exists for the meeting
func (r *transcriptRepository) ExistsForMeeting(ctx context.Context, meetingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Transcript{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	return count > 0, err
}
