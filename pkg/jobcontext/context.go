package jobcontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyRunID          KeyContext = "run_id"
	keyStageName      KeyContext = "stage_name"
	keyStageStartTime KeyContext = "stage_start_time"
)

// StageMetadata holds metadata for one stage run
type StageMetadata struct {
	RunID     uuid.UUID
	Stage     string
	StartTime time.Time
}

// StageBegin initializes a stage-run context with metadata and a timeout
// so a hung vendor call cannot wedge the scheduler loop
func StageBegin(parentCtx context.Context, stage string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyRunID, uuid.New())
	ctx = context.WithValue(ctx, keyStageName, stage)
	ctx = context.WithValue(ctx, keyStageStartTime, time.Now())

	return ctx, cancel
}

// RunStage executes the stage function with panic recovery
func RunStage(ctx context.Context, stageFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before stage execution: %w", ctx.Err())
	}

	return stageFunc(ctx)
}

// GetRunID extracts the run ID from context
func GetRunID(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(keyRunID).(uuid.UUID)
	return runID, ok
}

// GetStage extracts the stage name from context
func GetStage(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(keyStageName).(string)
	return stage, ok
}

// GetStageStartTime extracts the stage start time from context
func GetStageStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyStageStartTime).(time.Time)
	return startTime, ok
}

// GetStageMetadata extracts all stage metadata from context
func GetStageMetadata(ctx context.Context) *StageMetadata {
	runID, _ := GetRunID(ctx)
	stage, _ := GetStage(ctx)
	startTime, _ := GetStageStartTime(ctx)

	return &StageMetadata{
		RunID:     runID,
		Stage:     stage,
		StartTime: startTime,
	}
}

// IsRetryableError checks if an error is worth retrying within one run.
// Retryable errors include network errors, timeouts, deadlocks, rate limits.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Database deadlock/lock errors (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") || // serialization_failure
		strings.Contains(errStr, "40p01") { // deadlock_detected
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	return false
}
