package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/veritas-team/meeting-pipeline/errors"
	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// reprocessTargets are the statuses an operator may reset a failed
// meeting back into
var reprocessTargets = map[entities.MeetingStatus]bool{
	entities.MeetingStatusDetected:            true,
	entities.MeetingStatusBotJoined:           true,
	entities.MeetingStatusTranscribed:         true,
	entities.MeetingStatusParticipantsMatched: true,
}

// Reprocess moves a terminally failed meeting back to an earlier status so
// the pipeline picks it up again. This is an operator action outside the
// forward-only transition table.
func (s *pipelineService) Reprocess(ctx context.Context, meetingID string, target string) error {
	id, err := uuid.Parse(meetingID)
	if err != nil {
		return apperrors.ErrInvalidArgument("meeting id must be a UUID")
	}

	to := entities.MeetingStatus(target)
	if !reprocessTargets[to] {
		return apperrors.ErrInvalidArgument("target status is not reprocessable")
	}

	meeting, err := s.meetingRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.ErrDBQueryFailed("find meeting", err)
	}
	if meeting == nil {
		return apperrors.ErrMeetingNotFound(meetingID)
	}

	reset, err := s.meetingRepo.ResetForReprocess(ctx, id, to)
	if err != nil {
		return apperrors.ErrDBQueryFailed("reset meeting", err)
	}
	if !reset {
		return apperrors.ErrMeetingBadState(meetingID, string(meeting.Status), "failed or failed_processing")
	}

	s.logger.Info("🔁 Meeting queued for reprocessing",
		zap.String("meeting_id", meetingID),
		zap.String("target_status", target),
	)
	return nil
}
