package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/vexa"
)

func endedMeeting(env *testEnv, user *entities.User, nativeID string) *entities.Meeting {
	m := env.addMeeting(user, nativeID, entities.MeetingStatusBotJoined, false, env.now.Add(-time.Hour))
	ended := env.now.Add(-10 * time.Minute)
	m.EndedAt = &ended
	return m
}

func sampleTranscript() *vexa.TranscriptResponse {
	return &vexa.TranscriptResponse{
		Transcript: "Alice: hello. Bob: hi there.",
		Segments: []vexa.TranscriptSegment{
			{Speaker: "Alice Smith", Text: "hello", StartTime: 0, EndTime: 2},
			{Speaker: "Bob Jones", Text: "hi there", StartTime: 2, EndTime: 5},
		},
		Participants: []vexa.TranscriptParticipant{
			{Name: "Alice Smith", Email: "alice@example.com", SpeakingTime: 2},
			{Name: "Bob Jones", SpeakingTime: 3},
		},
		Duration:  300,
		WordCount: 3,
		Raw:       []byte(`{"transcript":"Alice: hello. Bob: hi there."}`),
	}
}

func TestRetrieveTranscriptsNotReadyLeavesMeetingInPlace(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := endedMeeting(env, user, "abc-defg-hij")

	result, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("RetrieveTranscripts: %v", err)
	}
	if result.Polled != 1 || result.NotReady != 1 || result.Retrieved != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusBotJoined {
		t.Errorf("status = %q, want bot_joined", env.meetings.meetings[m.ID].Status)
	}
	if len(env.transcripts.byMeeting) != 0 {
		t.Error("no transcript should be stored while not ready")
	}
}

func TestRetrieveTranscriptsStoresOnSuccess(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := endedMeeting(env, user, "abc-defg-hij")
	env.fetcher.responses["abc-defg-hij"] = sampleTranscript()

	result, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("RetrieveTranscripts: %v", err)
	}
	if result.Retrieved != 1 || result.Failures != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusTranscribed {
		t.Errorf("status = %q, want transcribed", env.meetings.meetings[m.ID].Status)
	}
	stored := env.transcripts.byMeeting[m.ID]
	if stored == nil {
		t.Fatal("transcript not stored")
	}
	if stored.WordCount != 3 || stored.DurationSeconds != 300 {
		t.Errorf("transcript fields = words %d duration %d", stored.WordCount, stored.DurationSeconds)
	}
	if len(stored.Segments) != 2 || len(stored.Participants) != 2 {
		t.Errorf("segments %d participants %d, want 2 each", len(stored.Segments), len(stored.Participants))
	}

	// A later run finds no pending work
	again, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Polled != 0 {
		t.Errorf("second run polled %d meetings, want 0", again.Polled)
	}
}

func TestRetrieveTranscriptsVendorErrorIsTransient(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := endedMeeting(env, user, "abc-defg-hij")
	env.fetcher.errs["abc-defg-hij"] = errors.New("vexa: 503 service unavailable")

	result, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("RetrieveTranscripts: %v", err)
	}
	if result.Failures != 1 {
		t.Errorf("failures = %d, want 1", result.Failures)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusBotJoined {
		t.Error("vendor errors must leave the meeting for the next tick")
	}
}

func TestRetrieveTranscriptsCompletesPendingAdvance(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := endedMeeting(env, user, "abc-defg-hij")

	// A transcript from an interrupted earlier run, meeting still bot_joined
	addTranscript(env, m, nil, []entities.TranscriptSegment{
		{Speaker: "Alice", Text: "hello", StartTime: 0, EndTime: 2},
	})

	result, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("RetrieveTranscripts: %v", err)
	}
	if result.Retrieved != 1 || result.Failures != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if env.fetcher.calls != 0 {
		t.Errorf("vendor polled %d times for a stored transcript, want 0", env.fetcher.calls)
	}
	if env.meetings.meetings[m.ID].Status != entities.MeetingStatusTranscribed {
		t.Errorf("status = %q, want transcribed", env.meetings.meetings[m.ID].Status)
	}
}

func TestRetrieveTranscriptsSkipsUnendedMeetings(t *testing.T) {
	env := newTestEnv()
	user := env.addUser("alice@example.com", "tok", "vexa-key")
	m := env.addMeeting(user, "run-ning-now", entities.MeetingStatusBotJoined, false, env.now.Add(-time.Minute))
	future := time.Now().Add(time.Hour)
	m.EndedAt = &future

	result, err := env.svc.RetrieveTranscripts(context.Background())
	if err != nil {
		t.Fatalf("RetrieveTranscripts: %v", err)
	}
	if result.Polled != 0 {
		t.Errorf("polled %d meetings before their end time, want 0", result.Polled)
	}
}
