package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/domain/repositories"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) repositories.ParticipantRepository {
	return &participantRepository{db: db}
}

// CreateBatch inserts all participant rows for one meeting
func (r *participantRepository) CreateBatch(ctx context.Context, participants []*entities.MeetingParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(participants).Error
}

// FindByMeetingID retrieves all participants of a meeting
func (r *participantRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingParticipant, error) {
	var participants []*entities.MeetingParticipant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("speaking_time_seconds DESC").
		Find(&participants).Error
	return participants, err
}

// CountByMeetingID counts participant rows for a meeting
func (r *participantRepository) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.MeetingParticipant{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	return count, err
}
