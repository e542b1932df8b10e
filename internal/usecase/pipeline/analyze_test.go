package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

func matchedMeeting(env *testEnv, user *entities.User) *entities.Meeting {
	m := env.addMeeting(user, "abc-defg-hij", entities.MeetingStatusParticipantsMatched, false, env.now.Add(-time.Hour))
	addTranscript(env, m, nil, []entities.TranscriptSegment{
		{Speaker: "Alice", Text: "let us review the roadmap", StartTime: 0, EndTime: 5},
	})
	return m
}

func TestAnalyzeMeetingsPersistsSummaryAndNotifies(t *testing.T) {
	env := newTestEnv()
	slackID := "U123"
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	user.SlackUserID = &slackID
	m := matchedMeeting(env, user)

	env.analyzer.content = validAnalysisJSON

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if result.MeetingsAnalyzed != 1 || result.ActionItemsCreated != 1 || result.NotificationsSent != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusCompleted {
		t.Errorf("status = %q, want completed", env.meetings.meetings[m.ID].Status)
	}
	summary := env.analysis.summaries[m.ID]
	if summary == nil {
		t.Fatal("summary not persisted")
	}
	if summary.ModelUsed != "test-model" {
		t.Errorf("model used = %q", summary.ModelUsed)
	}
	if len(env.analysis.items) != 1 {
		t.Fatalf("action items = %d, want 1", len(env.analysis.items))
	}
	if env.analysis.items[0].MeetingID != m.ID {
		t.Error("action item not linked to meeting")
	}

	if len(env.notes.notifications) != 1 {
		t.Fatalf("notifications queued = %d, want 1", len(env.notes.notifications))
	}
	note := env.notes.notifications[0]
	if note.Status != entities.NotificationStatusSent || note.SentAt == nil {
		t.Errorf("notification status = %q", note.Status)
	}
	if len(env.notifier.posts) != 1 || env.notifier.posts[0] != "U123" {
		t.Errorf("slack posts = %v", env.notifier.posts)
	}
}

func TestAnalyzeMeetingsMalformedOutputIsFatal(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := matchedMeeting(env, user)

	env.analyzer.content = "this is not json"

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if result.Failures != 1 || result.MeetingsAnalyzed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusFailedProcessing {
		t.Errorf("status = %q, want failed_processing", env.meetings.meetings[m.ID].Status)
	}
	if len(env.analysis.summaries) != 0 {
		t.Error("no summary should be stored for rejected output")
	}
}

func TestAnalyzeMeetingsCollaboratorErrorIsFatal(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := matchedMeeting(env, user)

	// Unclassified errors are permanent, so the retry loop gives up on the
	// first attempt instead of burning the backoff window
	env.analyzer.err = errors.New("model rejected the request")

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if result.Failures != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if env.analyzer.calls != 1 {
		t.Errorf("analyzer called %d times, want 1 for a permanent error", env.analyzer.calls)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusFailedProcessing {
		t.Errorf("status = %q, want failed_processing", env.meetings.meetings[m.ID].Status)
	}
}

func TestAnalyzeMeetingsTransientSaveFailureLosesNothing(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := matchedMeeting(env, user)

	env.analyzer.content = validAnalysisJSON
	env.analysis.saveErr = errors.New("pq: deadlock detected")

	first, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Failures != 1 || first.MeetingsAnalyzed != 0 {
		t.Fatalf("first run counts: %+v", first)
	}
	// The failed save commits nothing, so the meeting stays eligible
	if len(env.analysis.summaries) != 0 || len(env.analysis.items) != 0 {
		t.Fatal("partial analysis persisted after failed save")
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusParticipantsMatched {
		t.Errorf("status = %q, want participants_matched", env.meetings.meetings[m.ID].Status)
	}

	second, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.MeetingsAnalyzed != 1 || second.ActionItemsCreated != 1 {
		t.Fatalf("second run counts: %+v", second)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusCompleted {
		t.Errorf("status = %q, want completed", env.meetings.meetings[m.ID].Status)
	}
	if len(env.analysis.items) != 1 {
		t.Fatalf("action items persisted = %d, want the collaborator's 1", len(env.analysis.items))
	}
}

func TestAnalyzeMeetingsSummaryAtMostOnce(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := matchedMeeting(env, user)

	// A previous run already wrote the summary but died before advancing
	env.analysis.summaries[m.ID] = &entities.MeetingSummary{MeetingID: m.ID}

	env.analyzer.content = validAnalysisJSON

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if env.analyzer.calls != 0 {
		t.Errorf("analyzer called %d times for an already-summarized meeting, want 0", env.analyzer.calls)
	}
	if result.MeetingsAnalyzed != 1 {
		t.Errorf("meeting should still advance to completed: %+v", result)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusCompleted {
		t.Errorf("status = %q, want completed", env.meetings.meetings[m.ID].Status)
	}
}

func TestAnalyzeMeetingsSkipsNotificationWithoutSlackID(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	matchedMeeting(env, user)

	env.analyzer.content = validAnalysisJSON

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if result.NotificationsSent != 0 {
		t.Errorf("notifications sent = %d, want 0 without a Slack ID", result.NotificationsSent)
	}
	if result.MeetingsAnalyzed != 1 {
		t.Error("meeting should complete even when the owner cannot be notified")
	}
}

func TestAnalyzeMeetingsDeliveryFailureKeepsMeetingCompleted(t *testing.T) {
	env := newTestEnv()
	slackID := "U123"
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	user.SlackUserID = &slackID
	m := matchedMeeting(env, user)

	env.analyzer.content = validAnalysisJSON
	env.notifier.err = errors.New("slack: channel_not_found")

	result, err := env.svc.AnalyzeMeetings(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeMeetings: %v", err)
	}
	if result.NotificationsSent != 0 {
		t.Errorf("notifications sent = %d, want 0", result.NotificationsSent)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusCompleted {
		t.Error("delivery failure must not fail the meeting")
	}
	if len(env.notes.notifications) != 1 || env.notes.notifications[0].Status != entities.NotificationStatusFailed {
		t.Error("queued notification should be marked failed")
	}
}
