package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from MeetingStatus
		to   MeetingStatus
		want bool
	}{
		{MeetingStatusDetected, MeetingStatusBotJoined, true},
		{MeetingStatusDetected, MeetingStatusFailed, true},
		{MeetingStatusDetected, MeetingStatusTranscribed, false},
		{MeetingStatusBotJoined, MeetingStatusTranscribed, true},
		{MeetingStatusBotJoined, MeetingStatusFailed, true},
		{MeetingStatusBotJoined, MeetingStatusCompleted, false},
		{MeetingStatusTranscribed, MeetingStatusParticipantsMatched, true},
		{MeetingStatusTranscribed, MeetingStatusFailedProcessing, false},
		{MeetingStatusParticipantsMatched, MeetingStatusCompleted, true},
		{MeetingStatusParticipantsMatched, MeetingStatusFailedProcessing, true},
		{MeetingStatusParticipantsMatched, MeetingStatusFailed, false},
		// No backward edges
		{MeetingStatusBotJoined, MeetingStatusDetected, false},
		{MeetingStatusCompleted, MeetingStatusDetected, false},
		// Terminal statuses go nowhere
		{MeetingStatusFailed, MeetingStatusDetected, false},
		{MeetingStatusFailedProcessing, MeetingStatusCompleted, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []MeetingStatus{MeetingStatusCompleted, MeetingStatusFailed, MeetingStatusFailedProcessing}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	active := []MeetingStatus{MeetingStatusDetected, MeetingStatusBotJoined, MeetingStatusTranscribed, MeetingStatusParticipantsMatched}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestNewMeeting(t *testing.T) {
	owner := &User{ID: uuid.New(), Email: "alice@example.com"}
	scheduled := time.Date(2025, 6, 2, 14, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	m := NewMeeting(owner, "abc-defg-hij", "https://meet.google.com/abc-defg-hij", "Weekly Sync", scheduled, false)

	if m.ID == uuid.Nil {
		t.Error("meeting id not assigned")
	}
	if m.UserID != owner.ID || m.UserEmail != owner.Email {
		t.Error("owner not recorded")
	}
	if m.Status != MeetingStatusDetected {
		t.Errorf("status = %q, want detected", m.Status)
	}
	if m.Platform != PlatformGoogleMeet {
		t.Errorf("platform = %q", m.Platform)
	}
	if m.ScheduledAt.Location() != time.UTC {
		t.Error("scheduled time not normalized to UTC")
	}
	if !m.ScheduledAt.Equal(scheduled) {
		t.Error("UTC normalization changed the instant")
	}
	if m.HasEnded() {
		t.Error("new meeting should have no end time")
	}
}
