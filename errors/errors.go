package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an error category on the API surface
type ErrorCode string

func (c ErrorCode) String() string { return string(c) }

const (
	ErrorCode_INTERNAL            ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT    ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND           ErrorCode = "NOT_FOUND"
	ErrorCode_ALREADY_EXISTS      ErrorCode = "ALREADY_EXISTS"
	ErrorCode_PERMISSION_DENIED   ErrorCode = "PERMISSION_DENIED"
	ErrorCode_UNAUTHENTICATED     ErrorCode = "UNAUTHENTICATED"
	ErrorCode_INVALID_PAYLOAD     ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_MEETING_NOT_FOUND   ErrorCode = "MEETING_NOT_FOUND"
	ErrorCode_MEETING_BAD_STATE   ErrorCode = "MEETING_BAD_STATE"
	ErrorCode_USER_NOT_FOUND      ErrorCode = "USER_NOT_FOUND"
	ErrorCode_MISSING_VENDOR_KEY  ErrorCode = "MISSING_VENDOR_KEY"
	ErrorCode_CALENDAR_FAILED     ErrorCode = "CALENDAR_FAILED"
	ErrorCode_BOT_DISPATCH_FAILED ErrorCode = "BOT_DISPATCH_FAILED"
	ErrorCode_TRANSCRIPT_FAILED   ErrorCode = "TRANSCRIPT_FAILED"
	ErrorCode_ANALYSIS_FAILED     ErrorCode = "ANALYSIS_FAILED"
	ErrorCode_NOTIFY_FAILED       ErrorCode = "NOTIFY_FAILED"
	ErrorCode_STAGE_BUSY          ErrorCode = "STAGE_BUSY"
	ErrorCode_DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
	ErrorCode_STORAGE_FAILED      ErrorCode = "STORAGE_FAILED"
	ErrorCode_CACHE_FAILED        ErrorCode = "CACHE_FAILED"
	ErrorCode_EXTERNAL_API_FAILED ErrorCode = "EXTERNAL_API_FAILED"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As
func (e AppError) Unwrap() error { return e.Raw }

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrAlreadyExists(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  fmt.Sprintf("%s already exists", resource),
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Pipeline Errors
func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrMeetingBadState(meetingID, currentStatus, expectedStatus string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_MEETING_BAD_STATE,
		Message:  "Meeting is in an unexpected status",
	}.WithDetail("meeting_id", meetingID).
		WithDetail("current_status", currentStatus).
		WithDetail("expected_status", expectedStatus)
}

func ErrUserNotFound(userID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_USER_NOT_FOUND,
		Message:  "User not found",
	}.WithDetail("user_id", userID)
}

func ErrMissingVendorKey(userID string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_MISSING_VENDOR_KEY,
		Message:  "User has no transcription API key configured",
	}.WithDetail("user_id", userID)
}

func ErrCalendarFailed(userID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_CALENDAR_FAILED,
		Message:  "Calendar scan failed",
	}.WithDetail("user_id", userID)
}

func ErrBotDispatchFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_BOT_DISPATCH_FAILED,
		Message:  "Bot dispatch failed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrTranscriptFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_TRANSCRIPT_FAILED,
		Message:  "Transcript retrieval failed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrAnalysisFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_FAILED,
		Message:  "Meeting analysis failed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrNotifyFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_NOTIFY_FAILED,
		Message:  "Notification delivery failed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrStageBusy(stage string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_STAGE_BUSY,
		Message:  "Stage is already running",
	}.WithDetail("stage", stage)
}

// Integration Errors
func ErrDBQueryFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("operation", operation)
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrExternalAPIFailed(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_EXTERNAL_API_FAILED,
		Message:  fmt.Sprintf("External API call failed: %s", service),
	}
}
