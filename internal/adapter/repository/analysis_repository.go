package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/domain/repositories"
)

// analysisRepository implements the AnalysisRepository interface
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *gorm.DB) repositories.AnalysisRepository {
	return &analysisRepository{db: db}
}

// SaveAnalysis inserts the summary and its action items in one transaction
func (r *analysisRepository) SaveAnalysis(ctx context.Context, summary *entities.MeetingSummary, items []*entities.ActionItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(summary).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SummaryExists reports whether a summary row exists for the meeting
func (r *analysisRepository) SummaryExists(ctx context.Context, meetingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.MeetingSummary{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	return count > 0, err
}

// FindSummaryByMeetingID retrieves the summary for a meeting
func (r *analysisRepository) FindSummaryByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingSummary, error) {
	var summary entities.MeetingSummary
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}
