package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veritas-team/meeting-pipeline/pkg/jobcontext"
)

// stageScheduler drives every stage on a ticker for deployments without an
// external cron. Stages run sequentially in pipeline order; the stage locks
// and conditional status updates keep an external cron firing at the same
// time harmless.
type stageScheduler struct {
	period   time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// StartScheduler begins the internal ticker loop
func (s *pipelineService) StartScheduler(ctx context.Context) error {
	if s.scheduler == nil {
		s.scheduler = &stageScheduler{period: s.cfg.Pipeline.SchedulerPeriod}
	}

	s.scheduler.mu.Lock()
	defer s.scheduler.mu.Unlock()

	if s.scheduler.running {
		return fmt.Errorf("scheduler already running")
	}

	s.scheduler.stopChan = make(chan struct{})
	s.scheduler.running = true
	s.scheduler.wg.Add(1)

	go s.runScheduler(ctx)

	s.logger.Info("⏰ Internal scheduler started",
		zap.Duration("period", s.scheduler.period),
	)
	return nil
}

// StopScheduler stops the ticker loop and waits for the current pass
func (s *pipelineService) StopScheduler() error {
	if s.scheduler == nil {
		return nil
	}

	s.scheduler.mu.Lock()
	if !s.scheduler.running {
		s.scheduler.mu.Unlock()
		return nil
	}
	s.scheduler.running = false
	close(s.scheduler.stopChan)
	s.scheduler.mu.Unlock()

	s.scheduler.wg.Wait()
	s.logger.Info("⏹️ Internal scheduler stopped")
	return nil
}

func (s *pipelineService) runScheduler(ctx context.Context) {
	defer s.scheduler.wg.Done()

	ticker := time.NewTicker(s.scheduler.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.scheduler.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAllStages(ctx)
		}
	}
}

// runAllStages runs one pass over the pipeline in stage order. A stage
// error does not stop the pass; later stages work on earlier ticks' output.
func (s *pipelineService) runAllStages(ctx context.Context) {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"calendar-monitor", func(ctx context.Context) error { _, err := s.ScanCalendars(ctx); return err }},
		{"instant-dispatch", func(ctx context.Context) error { _, err := s.DispatchInstant(ctx); return err }},
		{"scheduled-dispatch", func(ctx context.Context) error { _, err := s.DispatchScheduled(ctx); return err }},
		{"transcript-retrieval", func(ctx context.Context) error { _, err := s.RetrieveTranscripts(ctx); return err }},
		{"participant-matching", func(ctx context.Context) error { _, err := s.MatchParticipants(ctx); return err }},
		{"analysis", func(ctx context.Context) error { _, err := s.AnalyzeMeetings(ctx); return err }},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			return
		}
		stageCtx, cancel := jobcontext.StageBegin(ctx, stage.name, s.cfg.Pipeline.StageLockTTL)
		err := jobcontext.RunStage(stageCtx, stage.run)
		cancel()
		if err != nil {
			s.logger.Error("❌ Scheduled stage run failed",
				zap.String("stage", stage.name),
				zap.Error(err),
			)
		}
	}
}
