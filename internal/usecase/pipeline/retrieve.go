package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/vexa"
)

// RetrieveTranscripts is stage 4: poll the vendor for transcripts of
// meetings whose bot joined and whose end time has passed. "Not ready"
// leaves the meeting in place for the next tick, and so does any other
// vendor error; vendor outages are transient and the retry cadence is the
// scheduler period.
func (s *pipelineService) RetrieveTranscripts(ctx context.Context) (*RetrieveResult, error) {
	ok, release := s.acquireStage(ctx, "transcript-retrieval")
	if !ok {
		return &RetrieveResult{Step: StepTranscriptRetrieval, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	meetings, err := s.meetingRepo.FindAwaitingTranscript(ctx, s.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &RetrieveResult{Step: StepTranscriptRetrieval, Status: StatusSuccess}
	for i, meeting := range meetings {
		// Pace vendor calls inside a batch
		if i > 0 && s.cfg.Pipeline.RetrieveDelay > 0 {
			select {
			case <-ctx.Done():
				result.Timestamp = s.now()
				return result, ctx.Err()
			case <-time.After(s.cfg.Pipeline.RetrieveDelay):
			}
		}
		result.Polled++
		s.retrieveOne(ctx, meeting, result)
	}

	result.Timestamp = s.now()
	return result, nil
}

func (s *pipelineService) retrieveOne(ctx context.Context, meeting *entities.Meeting, result *RetrieveResult) {
	// A transcript row with the meeting still at bot_joined means an earlier
	// invocation died between the insert and the status update. Finish the
	// advance instead of polling the vendor again.
	exists, err := s.transcriptRepo.ExistsForMeeting(ctx, meeting.ID)
	if err != nil {
		result.Failures++
		return
	}
	if exists {
		claimed, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID,
			entities.MeetingStatusBotJoined, entities.MeetingStatusTranscribed, nil)
		if err != nil {
			result.Failures++
			return
		}
		if claimed {
			result.Retrieved++
			s.logger.Info("📝 Completed pending transcript advance",
				zap.String("meeting_id", meeting.ID.String()),
			)
		}
		return
	}

	owner, err := s.userRepo.FindByID(ctx, meeting.UserID)
	if err != nil || owner == nil || !owner.HasVendorKey() {
		result.Failures++
		s.logger.Error("❌ Cannot poll transcript without owner vendor key",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	payload, err := s.fetcher.FetchTranscript(ctx, *owner.VexaAPIKey, string(meeting.Platform), meeting.NativeMeetingID)
	if errors.Is(err, vexa.ErrTranscriptNotReady) {
		result.NotReady++
		return
	}
	if err != nil {
		result.Failures++
		s.logger.Warn("⚠️ Transcript poll failed, will retry next tick",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	segments := make([]entities.TranscriptSegment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, entities.TranscriptSegment{
			Speaker:   seg.Speaker,
			Text:      seg.Text,
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
		})
	}
	participants := make([]entities.VendorParticipant, 0, len(payload.Participants))
	for _, p := range payload.Participants {
		participants = append(participants, entities.VendorParticipant{
			Name:         p.Name,
			Email:        p.Email,
			SpeakingTime: p.SpeakingTime,
		})
	}

	transcript := entities.NewTranscript(meeting.ID, meeting.UserID)
	transcript.Text = payload.Transcript
	transcript.Segments = segments
	transcript.Participants = participants
	transcript.WordCount = payload.WordCount
	transcript.DurationSeconds = int(payload.Duration)

	var raw map[string]interface{}
	if err := json.Unmarshal(payload.Raw, &raw); err == nil {
		transcript.RawData = datatypes.NewJSONType(raw)
	}

	if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
		result.Failures++
		s.logger.Error("❌ Failed to persist transcript",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	if s.archive != nil && len(payload.Raw) > 0 {
		objectName := fmt.Sprintf("transcripts/%s/%s.json", meeting.Platform, meeting.NativeMeetingID)
		if err := s.archive.ArchiveTranscript(ctx, objectName, payload.Raw); err != nil {
			// Archive is audit-only, not part of the pipeline contract
			s.logger.Warn("⚠️ Failed to archive raw transcript payload",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
	}

	claimed, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID,
		entities.MeetingStatusBotJoined, entities.MeetingStatusTranscribed, nil)
	if err != nil {
		result.Failures++
		s.logger.Error("❌ Failed to advance meeting after transcript",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		return
	}

	result.Retrieved++
	s.logger.Info("📝 Transcript retrieved",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int("word_count", transcript.WordCount),
		zap.Int("segments", len(segments)),
	)
}
