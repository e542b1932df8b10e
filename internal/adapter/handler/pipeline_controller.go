package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/veritas-team/meeting-pipeline/errors"
	dto "github.com/veritas-team/meeting-pipeline/internal/adapter/dto/pipeline"
	"github.com/veritas-team/meeting-pipeline/internal/usecase/pipeline"
)

// Pipeline exposes the stage trigger surface. Each endpoint runs one stage
// to completion and reports its counts; the external scheduler treats any
// non-2xx as a failed tick.
type Pipeline struct {
	svc    pipeline.Service
	logger *zap.Logger
}

// NewPipelineHandler creates the pipeline handler
func NewPipelineHandler(svc pipeline.Service, logger *zap.Logger) *Pipeline {
	return &Pipeline{svc: svc, logger: logger}
}

// stageError is the failure shape on the trigger surface
type stageError struct {
	Step      int       `json:"step"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Pipeline) respondStageError(c echo.Context, step int, err error) error {
	h.logger.Error("❌ Pipeline stage failed",
		zap.Int("step", step),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, stageError{
		Step:      step,
		Error:     "stage_failed",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// ScanCalendars triggers stage 1
func (h *Pipeline) ScanCalendars(c echo.Context) error {
	result, err := h.svc.ScanCalendars(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepCalendarMonitor, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DispatchInstant triggers stage 2
func (h *Pipeline) DispatchInstant(c echo.Context) error {
	result, err := h.svc.DispatchInstant(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepInstantDispatch, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DispatchScheduled triggers stage 3
func (h *Pipeline) DispatchScheduled(c echo.Context) error {
	result, err := h.svc.DispatchScheduled(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepScheduledDispatch, err)
	}
	return c.JSON(http.StatusOK, result)
}

// RetrieveTranscripts triggers stage 4
func (h *Pipeline) RetrieveTranscripts(c echo.Context) error {
	result, err := h.svc.RetrieveTranscripts(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepTranscriptRetrieval, err)
	}
	return c.JSON(http.StatusOK, result)
}

// MatchParticipants triggers stage 5
func (h *Pipeline) MatchParticipants(c echo.Context) error {
	result, err := h.svc.MatchParticipants(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepParticipantMatching, err)
	}
	return c.JSON(http.StatusOK, result)
}

// AnalyzeMeetings triggers stage 6
func (h *Pipeline) AnalyzeMeetings(c echo.Context) error {
	result, err := h.svc.AnalyzeMeetings(c.Request().Context())
	if err != nil {
		return h.respondStageError(c, pipeline.StepAnalysis, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Reprocess resets a failed meeting for another pipeline pass
func (h *Pipeline) Reprocess(c echo.Context) error {
	var req dto.ReprocessRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	if err := h.svc.Reprocess(c.Request().Context(), c.Param("id"), req.TargetStatus); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"meetingId":    c.Param("id"),
		"targetStatus": req.TargetStatus,
	})
}
