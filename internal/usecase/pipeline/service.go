package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veritas-team/meeting-pipeline/internal/domain/repositories"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/cache"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/calendar"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/vexa"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
	"github.com/veritas-team/meeting-pipeline/pkg/notify"
)

// Service defines the pipeline stage operations. Each stage is idempotent
// and reads its own work from meeting status, so any of them can be
// re-invoked safely.
type Service interface {
	ScanCalendars(ctx context.Context) (*ScanResult, error)
	DispatchInstant(ctx context.Context) (*DispatchResult, error)
	DispatchScheduled(ctx context.Context) (*DispatchResult, error)
	RetrieveTranscripts(ctx context.Context) (*RetrieveResult, error)
	MatchParticipants(ctx context.Context) (*MatchResult, error)
	AnalyzeMeetings(ctx context.Context) (*AnalyzeResult, error)

	Reprocess(ctx context.Context, meetingID string, target string) error

	StartScheduler(ctx context.Context) error
	StopScheduler() error
}

// EventLister lists upcoming conference events from one calendar
type EventLister interface {
	ListUpcoming(ctx context.Context, calendarID, accessToken, refreshToken string, onTokenRefresh calendar.TokenUpdateFunc, from, to time.Time) ([]calendar.Event, error)
}

// BotDispatcher asks the transcription vendor to join a meeting
type BotDispatcher interface {
	RequestBot(ctx context.Context, apiKey, platform, nativeMeetingID string) error
}

// TranscriptFetcher polls the vendor for a finished transcript
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, apiKey, platform, nativeMeetingID string) (*vexa.TranscriptResponse, error)
}

// AnalysisCompleter runs one JSON-mode completion over a transcript prompt
type AnalysisCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Notifier delivers a meeting summary to its owner
type Notifier interface {
	Enabled() bool
	PostMessage(ctx context.Context, channel, text string, blocks []notify.Block) error
}

// Archiver stores raw vendor payloads for audit. Nil disables archiving.
type Archiver interface {
	ArchiveTranscript(ctx context.Context, objectName string, payload []byte) error
}

type pipelineService struct {
	userRepo         repositories.UserRepository
	meetingRepo      repositories.MeetingRepository
	transcriptRepo   repositories.TranscriptRepository
	participantRepo  repositories.ParticipantRepository
	analysisRepo     repositories.AnalysisRepository
	notificationRepo repositories.NotificationRepository

	calendarSvc EventLister
	botClient   BotDispatcher
	fetcher     TranscriptFetcher
	analyzer    AnalysisCompleter
	notifier    Notifier
	archive     Archiver

	locker cache.Locker
	cfg    *config.Config
	logger *zap.Logger

	// now is swappable so the join-window math is testable
	now func() time.Time

	scheduler *stageScheduler
}

// NewPipelineService constructs the pipeline service
func NewPipelineService(
	userRepo repositories.UserRepository,
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	participantRepo repositories.ParticipantRepository,
	analysisRepo repositories.AnalysisRepository,
	notificationRepo repositories.NotificationRepository,
	calendarSvc EventLister,
	botClient BotDispatcher,
	fetcher TranscriptFetcher,
	analyzer AnalysisCompleter,
	notifier Notifier,
	archive Archiver,
	locker cache.Locker,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &pipelineService{
		userRepo:         userRepo,
		meetingRepo:      meetingRepo,
		transcriptRepo:   transcriptRepo,
		participantRepo:  participantRepo,
		analysisRepo:     analysisRepo,
		notificationRepo: notificationRepo,
		calendarSvc:      calendarSvc,
		botClient:        botClient,
		fetcher:          fetcher,
		analyzer:         analyzer,
		notifier:         notifier,
		archive:          archive,
		locker:           locker,
		cfg:              cfg,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// acquireStage takes the advisory lock for one stage run. Overlap safety
// rests on the conditional status updates; the lock just keeps overlapping
// cron ticks from burning duplicate vendor calls.
func (s *pipelineService) acquireStage(ctx context.Context, stage string) (bool, func()) {
	if s.locker == nil {
		return true, func() {}
	}
	key := "pipeline:stage:" + stage
	ok, err := s.locker.Acquire(ctx, key, s.cfg.Pipeline.StageLockTTL)
	if err != nil {
		// Lock backend down: run anyway, conditional updates keep us safe
		s.logger.Warn("⚠️ Stage lock unavailable, continuing without it",
			zap.String("stage", stage),
			zap.Error(err),
		)
		return true, func() {}
	}
	if !ok {
		return false, func() {}
	}
	return true, func() {
		if err := s.locker.Release(context.Background(), key); err != nil {
			s.logger.Warn("⚠️ Failed to release stage lock",
				zap.String("stage", stage),
				zap.Error(err),
			)
		}
	}
}
