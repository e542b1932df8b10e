package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/pkg/jobcontext"
	"github.com/veritas-team/meeting-pipeline/pkg/notify"
)

const analysisSystemPrompt = `You are a meeting analyst. Given a meeting transcript with speaker-attributed segments and an optional participant roster, respond with a JSON object of this exact shape:
{"summary": string, "sentiment": "Positive"|"Neutral"|"Negative", "sentimentScore": number between 0 and 1, "keyTopics": [string], "actionItems": [{"taskDescription": string, "owner": string, "verbatimQuote": string}]}
Every action item must quote the transcript verbatim. Respond with JSON only.`

// AnalyzeMeetings is stage 6: run the analysis collaborator once per
// matched meeting without a summary, persist the structured result, notify
// the owner, and complete the meeting. Malformed collaborator output is
// fatal per meeting.
func (s *pipelineService) AnalyzeMeetings(ctx context.Context) (*AnalyzeResult, error) {
	ok, release := s.acquireStage(ctx, "analysis")
	if !ok {
		return &AnalyzeResult{Step: StepAnalysis, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	meetings, err := s.meetingRepo.FindByStatus(ctx, entities.MeetingStatusParticipantsMatched, nil, s.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{Step: StepAnalysis, Status: StatusSuccess}
	for _, meeting := range meetings {
		s.analyzeOne(ctx, meeting, result)
	}

	result.Timestamp = s.now()
	return result, nil
}

func (s *pipelineService) analyzeOne(ctx context.Context, meeting *entities.Meeting, result *AnalyzeResult) {
	// At-most-one analysis per meeting, even across overlapping runs
	exists, err := s.analysisRepo.SummaryExists(ctx, meeting.ID)
	if err != nil {
		result.Failures++
		return
	}

	if !exists {
		transcript, err := s.transcriptRepo.FindByMeetingID(ctx, meeting.ID)
		if err != nil || transcript == nil {
			result.Failures++
			s.failMeeting(ctx, meeting, entities.MeetingStatusFailedProcessing)
			s.logger.Error("❌ Matched meeting has no readable transcript",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
			return
		}

		participants, err := s.participantRepo.FindByMeetingID(ctx, meeting.ID)
		if err != nil {
			result.Failures++
			return
		}

		started := s.now()
		content, err := s.completeWithRetry(ctx, buildAnalysisPrompt(meeting, transcript, participants))
		if err != nil {
			result.Failures++
			s.failMeeting(ctx, meeting, entities.MeetingStatusFailedProcessing)
			s.logger.Error("❌ Analysis collaborator failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
			return
		}

		analysis, err := ParseAnalysis(content)
		if err != nil {
			result.Failures++
			s.failMeeting(ctx, meeting, entities.MeetingStatusFailedProcessing)
			s.logger.Error("❌ Analysis output rejected",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
			return
		}

		summary := entities.NewMeetingSummary(meeting.ID, analysis)
		summary.ModelUsed = s.cfg.Analysis.Model
		summary.ProcessingTimeMS = int(s.now().Sub(started).Milliseconds())
		summary.RawResponse = datatypes.JSON([]byte(content))

		// Summary and items go in one transaction: once SummaryExists is
		// true this meeting is never analyzed again, so a summary committed
		// without its items would lose them for good
		items := entities.ActionItemsFromResult(meeting.ID, summary.ID, analysis)
		if err := s.analysisRepo.SaveAnalysis(ctx, summary, items); err != nil {
			result.Failures++
			s.logger.Error("❌ Failed to persist analysis result",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
			return
		}
		result.ActionItemsCreated += len(items)

		if s.notifyOwner(ctx, meeting, analysis) {
			result.NotificationsSent++
		}
	}

	claimed, err := s.meetingRepo.AdvanceStatus(ctx, meeting.ID,
		entities.MeetingStatusParticipantsMatched, entities.MeetingStatusCompleted, nil)
	if err != nil {
		result.Failures++
		return
	}
	if !claimed {
		return
	}

	result.MeetingsAnalyzed++
	s.logger.Info("✅ Meeting analysis completed",
		zap.String("meeting_id", meeting.ID.String()),
	)
}

// completeWithRetry calls the analysis collaborator with backoff for
// transient failures inside a single stage invocation
func (s *pipelineService) completeWithRetry(ctx context.Context, userPrompt string) (string, error) {
	var content string
	callFn := func() error {
		var err error
		content, err = s.analyzer.Complete(ctx, analysisSystemPrompt, userPrompt)
		if err != nil && !jobcontext.IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 45 * time.Second
	bo.MaxInterval = 15 * time.Second

	if err := backoff.Retry(callFn, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	return content, nil
}

// buildAnalysisPrompt lays out the transcript and roster for the collaborator
func buildAnalysisPrompt(meeting *entities.Meeting, transcript *entities.Transcript, participants []*entities.MeetingParticipant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Meeting: %s\n", meeting.Title)
	fmt.Fprintf(&b, "Held: %s\n\n", meeting.ScheduledAt.Format(time.RFC1123))

	if len(participants) > 0 {
		b.WriteString("Participants:\n")
		for _, p := range participants {
			fmt.Fprintf(&b, "- %s (spoke %d words)\n", p.Name, p.WordCount)
		}
		b.WriteString("\n")
	}

	if len(transcript.Segments) > 0 {
		b.WriteString("Transcript:\n")
		for _, seg := range transcript.Segments {
			fmt.Fprintf(&b, "%s: %s\n", seg.Speaker, seg.Text)
		}
	} else {
		b.WriteString("Transcript:\n")
		b.WriteString(transcript.Text)
	}

	return b.String()
}

// notifyOwner queues a notification row and attempts immediate Slack
// delivery. Delivery failures never fail the meeting; the queued row keeps
// the payload for a later retry.
func (s *pipelineService) notifyOwner(ctx context.Context, meeting *entities.Meeting, analysis *entities.AnalysisResult) bool {
	owner, err := s.userRepo.FindByID(ctx, meeting.UserID)
	if err != nil || owner == nil {
		return false
	}
	if owner.SlackUserID == nil || *owner.SlackUserID == "" {
		return false
	}

	payload, _ := json.Marshal(analysis)
	notification := &entities.Notification{
		MeetingID: meeting.ID,
		Recipient: *owner.SlackUserID,
		Channel:   entities.NotificationChannelSlack,
		Subject:   fmt.Sprintf("Meeting summary: %s", meeting.Title),
		Payload:   datatypes.JSON(payload),
		Status:    entities.NotificationStatusPending,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("❌ Failed to queue notification",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if s.notifier == nil || !s.notifier.Enabled() {
		return false
	}

	blocks := summaryBlocks(meeting, analysis)
	fallback := fmt.Sprintf("Summary for %s: %s", meeting.Title, analysis.Summary)
	if err := s.notifier.PostMessage(ctx, *owner.SlackUserID, fallback, blocks); err != nil {
		s.logger.Warn("⚠️ Slack delivery failed",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		if err := s.notificationRepo.MarkFailed(ctx, notification.ID); err != nil {
			s.logger.Error("❌ Failed to record notification failure", zap.Error(err))
		}
		return false
	}

	if err := s.notificationRepo.MarkSent(ctx, notification.ID, s.now()); err != nil {
		s.logger.Error("❌ Failed to record notification delivery", zap.Error(err))
	}
	return true
}

// summaryBlocks renders the analysis as Slack Block Kit blocks
func summaryBlocks(meeting *entities.Meeting, analysis *entities.AnalysisResult) []notify.Block {
	blocks := []notify.Block{
		notify.HeaderBlock(fmt.Sprintf("📋 %s", meeting.Title)),
		notify.SectionBlock(analysis.Summary),
	}

	if len(analysis.KeyTopics) > 0 {
		blocks = append(blocks, notify.SectionBlock(
			fmt.Sprintf("*Key topics:* %s", strings.Join(analysis.KeyTopics, ", "))))
	}

	blocks = append(blocks, notify.SectionBlock(
		fmt.Sprintf("*Sentiment:* %s (%.2f)", analysis.Sentiment, analysis.SentimentScore)))

	if len(analysis.ActionItems) > 0 {
		blocks = append(blocks, notify.DividerBlock())
		var list strings.Builder
		list.WriteString("*Action items:*\n")
		for _, item := range analysis.ActionItems {
			if item.Owner != "" {
				fmt.Fprintf(&list, "• %s (owner: %s)\n", item.TaskDescription, item.Owner)
			} else {
				fmt.Fprintf(&list, "• %s\n", item.TaskDescription)
			}
		}
		blocks = append(blocks, notify.SectionBlock(list.String()))
	}

	return blocks
}
