package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// DispatchInstant is stage 2: send a bot into every detected ad-hoc
// meeting right away.
func (s *pipelineService) DispatchInstant(ctx context.Context) (*DispatchResult, error) {
	ok, release := s.acquireStage(ctx, "instant-dispatch")
	if !ok {
		return &DispatchResult{Step: StepInstantDispatch, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	instant := true
	meetings, err := s.meetingRepo.FindByStatus(ctx, entities.MeetingStatusDetected, &instant, s.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{Step: StepInstantDispatch, Status: StatusSuccess}
	for _, meeting := range meetings {
		result.Eligible++
		s.dispatchOne(ctx, meeting, result)
	}

	result.Timestamp = s.now()
	return result, nil
}

// DispatchScheduled is stage 3: send bots into pre-scheduled meetings
// whose start time has entered the join window. Meetings still outside
// the window are left untouched for a later invocation.
func (s *pipelineService) DispatchScheduled(ctx context.Context) (*DispatchResult, error) {
	ok, release := s.acquireStage(ctx, "scheduled-dispatch")
	if !ok {
		return &DispatchResult{Step: StepScheduledDispatch, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	instant := false
	meetings, err := s.meetingRepo.FindByStatus(ctx, entities.MeetingStatusDetected, &instant, s.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{Step: StepScheduledDispatch, Status: StatusSuccess}
	now := s.now()
	for _, meeting := range meetings {
		// timeDiff > 0 means the meeting has not started yet
		timeDiff := meeting.ScheduledAt.Sub(now)
		if timeDiff > s.cfg.Pipeline.JoinEarly || timeDiff < -s.cfg.Pipeline.JoinLate {
			result.Pending++
			continue
		}
		result.Eligible++
		s.dispatchOne(ctx, meeting, result)
	}

	result.Timestamp = s.now()
	return result, nil
}

// dispatchOne sends the bot for a single meeting and advances its status.
// A missing vendor key is terminal: the credential will not appear on its
// own, so retrying is pointless.
func (s *pipelineService) dispatchOne(ctx context.Context, meeting *entities.Meeting, result *DispatchResult) {
	owner, err := s.userRepo.FindByID(ctx, meeting.UserID)
	if err != nil || owner == nil {
		result.Failed++
		s.failMeeting(ctx, meeting, entities.MeetingStatusFailed)
		s.logger.Error("❌ Cannot dispatch bot without meeting owner",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	if !owner.HasVendorKey() {
		result.Failed++
		s.failMeeting(ctx, meeting, entities.MeetingStatusFailed)
		s.logger.Warn("⚠️ Meeting owner has no vendor API key",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("user_id", owner.ID.String()),
		)
		return
	}

	err = s.botClient.RequestBot(ctx, *owner.VexaAPIKey, string(meeting.Platform), meeting.NativeMeetingID)
	if err != nil {
		result.Failed++
		s.failMeeting(ctx, meeting, entities.MeetingStatusFailed)
		s.logger.Error("❌ Bot dispatch failed",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	now := s.now()
	claimed, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID,
		entities.MeetingStatusDetected, entities.MeetingStatusBotJoined,
		map[string]interface{}{
			"bot_joined_at": now,
			"started_at":    now,
		})
	if err != nil {
		result.Failed++
		s.logger.Error("❌ Failed to advance meeting after bot join",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		// Another invocation got here first; the duplicate bot request
		// is tolerated as at-least-once delivery
		return
	}

	result.Dispatched++
	s.logger.Info("🤖 Bot dispatched",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("native_meeting_id", meeting.NativeMeetingID),
		zap.Bool("is_instant", meeting.IsInstant),
	)
}

// failMeeting moves a meeting to a terminal failure status, tolerating
// the row having been claimed by a concurrent invocation
func (s *pipelineService) failMeeting(ctx context.Context, meeting *entities.Meeting, to entities.MeetingStatus) {
	if _, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID, meeting.Status, to, nil); err != nil {
		s.logger.Error("❌ Failed to mark meeting as failed",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("target_status", string(to)),
			zap.Error(err),
		)
	}
}
