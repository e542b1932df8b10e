package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// speakerGroup aggregates every transcript segment attributed to one
// speaker label
type speakerGroup struct {
	label        string
	segments     []entities.TranscriptSegment
	wordCount    int
	speakingTime float64
}

// MatchParticipants is stage 5: reconcile vendor-reported participants with
// transcript speaker labels. The correlation is best-effort; a transcript
// without participant metadata still advances with zero rows, because
// absent data is a vendor limitation, not a pipeline failure.
func (s *pipelineService) MatchParticipants(ctx context.Context) (*MatchResult, error) {
	ok, release := s.acquireStage(ctx, "participant-matching")
	if !ok {
		return &MatchResult{Step: StepParticipantMatching, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	meetings, err := s.meetingRepo.FindByStatus(ctx, entities.MeetingStatusTranscribed, nil, s.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{Step: StepParticipantMatching, Status: StatusSuccess}
	for _, meeting := range meetings {
		s.matchOne(ctx, meeting, result)
	}

	result.Timestamp = s.now()
	return result, nil
}

func (s *pipelineService) matchOne(ctx context.Context, meeting *entities.Meeting, result *MatchResult) {
	transcript, err := s.transcriptRepo.FindByMeetingID(ctx, meeting.ID)
	if err != nil || transcript == nil {
		result.Failures++
		s.logger.Error("❌ Transcribed meeting has no readable transcript",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	// Idempotence across overlapping runs: rows already written mean a
	// previous invocation got as far as the insert
	existing, err := s.participantRepo.CountByMeetingID(ctx, meeting.ID)
	if err != nil {
		result.Failures++
		return
	}

	if existing == 0 {
		participants := correlateParticipants(transcript.Participants, transcript.Segments)
		if len(participants) > 0 {
			for _, p := range participants {
				p.MeetingID = meeting.ID
			}
			if err := s.participantRepo.CreateBatch(ctx, participants); err != nil {
				result.Failures++
				s.logger.Error("❌ Failed to persist meeting participants",
					zap.String("meeting_id", meeting.ID.String()),
					zap.Error(err),
				)
				return
			}
			result.ParticipantsCreated += len(participants)
		}
	}

	claimed, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID,
		entities.MeetingStatusTranscribed, entities.MeetingStatusParticipantsMatched, nil)
	if err != nil {
		result.Failures++
		return
	}
	if !claimed {
		return
	}

	result.MeetingsProcessed++
	s.logger.Info("👥 Participants matched",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int("participants", result.ParticipantsCreated),
	)
}

// correlateParticipants builds one participant row per vendor-reported
// attendee, attaching the segments of any speaker label that matches the
// attendee name by case-insensitive substring in either direction.
func correlateParticipants(vendorParticipants []entities.VendorParticipant, segments []entities.TranscriptSegment) []*entities.MeetingParticipant {
	if len(vendorParticipants) == 0 {
		return nil
	}

	groups := groupSegmentsBySpeaker(segments)

	participants := make([]*entities.MeetingParticipant, 0, len(vendorParticipants))
	for _, vp := range vendorParticipants {
		p := &entities.MeetingParticipant{
			Name:                vp.Name,
			SpeakingTimeSeconds: int(vp.SpeakingTime),
		}
		if vp.Email != "" {
			email := vp.Email
			p.Email = &email
		}

		if group := findSpeakerGroup(groups, vp.Name); group != nil {
			p.AttachSegments(group.segments, group.wordCount)
			if p.SpeakingTimeSeconds == 0 {
				p.SpeakingTimeSeconds = int(group.speakingTime)
			}
		}

		participants = append(participants, p)
	}
	return participants
}

// groupSegmentsBySpeaker aggregates segments under their lowercased
// speaker label
func groupSegmentsBySpeaker(segments []entities.TranscriptSegment) []*speakerGroup {
	index := make(map[string]*speakerGroup)
	var ordered []*speakerGroup

	for _, seg := range segments {
		label := strings.TrimSpace(seg.Speaker)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		group, found := index[key]
		if !found {
			group = &speakerGroup{label: label}
			index[key] = group
			ordered = append(ordered, group)
		}
		group.segments = append(group.segments, seg)
		group.wordCount += len(strings.Fields(seg.Text))
		if seg.EndTime > seg.StartTime {
			group.speakingTime += seg.EndTime - seg.StartTime
		}
	}
	return ordered
}

// findSpeakerGroup matches a vendor display name against speaker labels
// by case-insensitive substring in either direction
func findSpeakerGroup(groups []*speakerGroup, name string) *speakerGroup {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for _, group := range groups {
		label := strings.ToLower(group.label)
		if strings.Contains(label, needle) || strings.Contains(needle, label) {
			return group
		}
	}
	return nil
}
