package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/calendar"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/vexa"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
	"github.com/veritas-team/meeting-pipeline/pkg/notify"
)

// In-memory fakes for the domain repositories and external clients. Tests
// run stages single-threaded, so no locking is needed.

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (f *fakeUserRepo) FindMonitored(_ context.Context) ([]*entities.User, error) {
	var out []*entities.User
	for _, u := range f.users {
		if u.MonitoringEnabled {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) UpdateCalendarToken(_ context.Context, id uuid.UUID, tokenJSON []byte) error {
	if u, ok := f.users[id]; ok {
		u.GoogleCalendarToken = tokenJSON
	}
	return nil
}

type fakeMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (f *fakeMeetingRepo) CreateIfAbsent(_ context.Context, meeting *entities.Meeting) (bool, error) {
	for _, m := range f.meetings {
		if m.Platform == meeting.Platform && m.NativeMeetingID == meeting.NativeMeetingID {
			return false, nil
		}
	}
	f.meetings[meeting.ID] = meeting
	return true, nil
}

func (f *fakeMeetingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	return f.meetings[id], nil
}

func (f *fakeMeetingRepo) FindByStatus(_ context.Context, status entities.MeetingStatus, isInstant *bool, limit int) ([]*entities.Meeting, error) {
	var out []*entities.Meeting
	for _, m := range f.meetings {
		if m.Status != status {
			continue
		}
		if isInstant != nil && m.IsInstant != *isInstant {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMeetingRepo) FindAwaitingTranscript(_ context.Context, limit int) ([]*entities.Meeting, error) {
	var out []*entities.Meeting
	for _, m := range f.meetings {
		if m.Status != entities.MeetingStatusBotJoined || m.EndedAt == nil || m.EndedAt.After(time.Now()) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.Before(*out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMeetingRepo) AdvanceStatus(_ context.Context, id uuid.UUID, from, to entities.MeetingStatus, extra map[string]interface{}) (bool, error) {
	if !from.CanTransition(to) {
		return false, entities.ErrIllegalTransition(from, to)
	}
	m, ok := f.meetings[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	if v, ok := extra["bot_joined_at"].(time.Time); ok {
		m.BotJoinedAt = &v
	}
	if v, ok := extra["started_at"].(time.Time); ok {
		m.StartedAt = &v
	}
	return true, nil
}

func (f *fakeMeetingRepo) ResetForReprocess(_ context.Context, id uuid.UUID, to entities.MeetingStatus) (bool, error) {
	m, ok := f.meetings[id]
	if !ok {
		return false, nil
	}
	if m.Status != entities.MeetingStatusFailed && m.Status != entities.MeetingStatusFailedProcessing {
		return false, nil
	}
	m.Status = to
	return true, nil
}

type fakeTranscriptRepo struct {
	byMeeting map[uuid.UUID]*entities.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{byMeeting: make(map[uuid.UUID]*entities.Transcript)}
}

func (f *fakeTranscriptRepo) Create(_ context.Context, transcript *entities.Transcript) error {
	f.byMeeting[transcript.MeetingID] = transcript
	return nil
}

func (f *fakeTranscriptRepo) FindByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	return f.byMeeting[meetingID], nil
}

func (f *fakeTranscriptRepo) ExistsForMeeting(_ context.Context, meetingID uuid.UUID) (bool, error) {
	_, ok := f.byMeeting[meetingID]
	return ok, nil
}

type fakeParticipantRepo struct {
	byMeeting map[uuid.UUID][]*entities.MeetingParticipant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{byMeeting: make(map[uuid.UUID][]*entities.MeetingParticipant)}
}

func (f *fakeParticipantRepo) CreateBatch(_ context.Context, participants []*entities.MeetingParticipant) error {
	for _, p := range participants {
		f.byMeeting[p.MeetingID] = append(f.byMeeting[p.MeetingID], p)
	}
	return nil
}

func (f *fakeParticipantRepo) FindByMeetingID(_ context.Context, meetingID uuid.UUID) ([]*entities.MeetingParticipant, error) {
	return f.byMeeting[meetingID], nil
}

func (f *fakeParticipantRepo) CountByMeetingID(_ context.Context, meetingID uuid.UUID) (int64, error) {
	return int64(len(f.byMeeting[meetingID])), nil
}

type fakeAnalysisRepo struct {
	summaries map[uuid.UUID]*entities.MeetingSummary
	items     []*entities.ActionItem
	// saveErr fails the next SaveAnalysis call, leaving nothing persisted
	saveErr error
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{summaries: make(map[uuid.UUID]*entities.MeetingSummary)}
}

func (f *fakeAnalysisRepo) SaveAnalysis(_ context.Context, summary *entities.MeetingSummary, items []*entities.ActionItem) error {
	if f.saveErr != nil {
		err := f.saveErr
		f.saveErr = nil
		return err
	}
	f.summaries[summary.MeetingID] = summary
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeAnalysisRepo) SummaryExists(_ context.Context, meetingID uuid.UUID) (bool, error) {
	_, ok := f.summaries[meetingID]
	return ok, nil
}

func (f *fakeAnalysisRepo) FindSummaryByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.MeetingSummary, error) {
	return f.summaries[meetingID], nil
}

type fakeNotificationRepo struct {
	notifications []*entities.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *entities.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.Status = entities.NotificationStatusSent
			n.SentAt = &sentAt
		}
	}
	return nil
}

func (f *fakeNotificationRepo) MarkFailed(_ context.Context, id uuid.UUID) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.Status = entities.NotificationStatusFailed
		}
	}
	return nil
}

// External client fakes

type fakeCalendar struct {
	eventsByToken map[string][]calendar.Event
	errByToken    map[string]error
	// calendarIDs records which calendar each call scanned
	calendarIDs []string
}

func (f *fakeCalendar) ListUpcoming(_ context.Context, calendarID, accessToken, _ string, _ calendar.TokenUpdateFunc, _, _ time.Time) ([]calendar.Event, error) {
	f.calendarIDs = append(f.calendarIDs, calendarID)
	if err := f.errByToken[accessToken]; err != nil {
		return nil, err
	}
	return f.eventsByToken[accessToken], nil
}

type fakeBot struct {
	err   error
	errs  map[string]error
	calls []string
}

func (f *fakeBot) RequestBot(_ context.Context, _, _, nativeMeetingID string) error {
	f.calls = append(f.calls, nativeMeetingID)
	if err, ok := f.errs[nativeMeetingID]; ok {
		return err
	}
	return f.err
}

type fakeFetcher struct {
	responses map[string]*vexa.TranscriptResponse
	errs      map[string]error
	calls     int
}

func (f *fakeFetcher) FetchTranscript(_ context.Context, _, _, nativeMeetingID string) (*vexa.TranscriptResponse, error) {
	f.calls++
	if err := f.errs[nativeMeetingID]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[nativeMeetingID]; ok {
		return resp, nil
	}
	return nil, vexa.ErrTranscriptNotReady
}

type fakeAnalyzer struct {
	content string
	err     error
	calls   int
}

func (f *fakeAnalyzer) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

type fakeNotifier struct {
	enabled bool
	err     error
	posts   []string
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) PostMessage(_ context.Context, channel, _ string, _ []notify.Block) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, channel)
	return nil
}

// testEnv wires a pipeline service over fakes
type testEnv struct {
	svc          *pipelineService
	users        *fakeUserRepo
	meetings     *fakeMeetingRepo
	transcripts  *fakeTranscriptRepo
	participants *fakeParticipantRepo
	analysis     *fakeAnalysisRepo
	notes        *fakeNotificationRepo
	calendar     *fakeCalendar
	bot          *fakeBot
	fetcher      *fakeFetcher
	analyzer     *fakeAnalyzer
	notifier     *fakeNotifier
	now          time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:        newFakeUserRepo(),
		meetings:     newFakeMeetingRepo(),
		transcripts:  newFakeTranscriptRepo(),
		participants: newFakeParticipantRepo(),
		analysis:     newFakeAnalysisRepo(),
		notes:        &fakeNotificationRepo{},
		calendar:     &fakeCalendar{eventsByToken: map[string][]calendar.Event{}, errByToken: map[string]error{}},
		bot:          &fakeBot{},
		fetcher:      &fakeFetcher{responses: map[string]*vexa.TranscriptResponse{}, errs: map[string]error{}},
		analyzer:     &fakeAnalyzer{},
		notifier:     &fakeNotifier{enabled: true},
		now:          time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}

	cfg := &config.Config{
		Pipeline: config.PipelineConfig{
			ScanLookback:     5 * time.Minute,
			ScanLookahead:    2 * time.Hour,
			InstantThreshold: 10 * time.Minute,
			JoinEarly:        2 * time.Minute,
			JoinLate:         5 * time.Minute,
			RetrieveDelay:    0,
			BatchLimit:       10,
			StageLockTTL:     4 * time.Minute,
		},
		Analysis: config.AnalysisConfig{Model: "test-model"},
	}

	svc := NewPipelineService(
		env.users, env.meetings, env.transcripts, env.participants,
		env.analysis, env.notes,
		env.calendar, env.bot, env.fetcher, env.analyzer, env.notifier, nil,
		nil, cfg, zap.NewNop(),
	).(*pipelineService)
	svc.now = func() time.Time { return env.now }

	env.svc = svc
	return env
}

// addUser registers a monitored user with the given access token and
// optional vendor key
func (env *testEnv) addUser(email, accessToken, vexaKey string) *entities.User {
	token, _ := json.Marshal(storedToken{AccessToken: accessToken, RefreshToken: "refresh-" + email})
	user := &entities.User{
		ID:                  uuid.New(),
		Email:               email,
		GoogleCalendarToken: token,
		MonitoringEnabled:   true,
	}
	if vexaKey != "" {
		user.VexaAPIKey = &vexaKey
	}
	env.users.users[user.ID] = user
	return user
}

// addMeeting inserts a meeting directly in the given status
func (env *testEnv) addMeeting(user *entities.User, nativeID string, status entities.MeetingStatus, isInstant bool, scheduledAt time.Time) *entities.Meeting {
	m := entities.NewMeeting(user, nativeID, "https://meet.google.com/"+nativeID, "Standup", scheduledAt, isInstant)
	m.Status = status
	env.meetings.meetings[m.ID] = m
	return m
}
