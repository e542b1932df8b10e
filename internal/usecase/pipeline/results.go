package pipeline

import "time"

// Stage numbers as reported on the trigger surface
const (
	StepCalendarMonitor     = 1
	StepInstantDispatch     = 2
	StepScheduledDispatch   = 3
	StepTranscriptRetrieval = 4
	StepParticipantMatching = 5
	StepAnalysis            = 6
)

// Stage result statuses
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
)

// ScanResult summarizes one Calendar Monitor run
type ScanResult struct {
	Step            int       `json:"step"`
	Status          string    `json:"status"`
	UsersScanned    int       `json:"usersScanned"`
	EventsSeen      int       `json:"eventsSeen"`
	MeetingsCreated int       `json:"newMeetings"`
	Failures        int       `json:"failures"`
	Timestamp       time.Time `json:"timestamp"`
}

// DispatchResult summarizes one dispatcher run, instant or scheduled
type DispatchResult struct {
	Step       int    `json:"step"`
	Status     string `json:"status"`
	Eligible   int    `json:"eligible"`
	Dispatched int    `json:"dispatched"`
	// Pending counts scheduled meetings still outside the join window
	Pending   int       `json:"pending"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// RetrieveResult summarizes one Transcript Retriever run
type RetrieveResult struct {
	Step      int       `json:"step"`
	Status    string    `json:"status"`
	Polled    int       `json:"polled"`
	Retrieved int       `json:"retrieved"`
	NotReady  int       `json:"notReady"`
	Failures  int       `json:"failures"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchResult summarizes one Participant Matcher run
type MatchResult struct {
	Step                int       `json:"step"`
	Status              string    `json:"status"`
	MeetingsProcessed   int       `json:"meetingsProcessed"`
	ParticipantsCreated int       `json:"participantsCreated"`
	Failures            int       `json:"failures"`
	Timestamp           time.Time `json:"timestamp"`
}

// AnalyzeResult summarizes one Analysis & Notification run
type AnalyzeResult struct {
	Step               int       `json:"step"`
	Status             string    `json:"status"`
	MeetingsAnalyzed   int       `json:"meetingsAnalyzed"`
	ActionItemsCreated int       `json:"actionItemsCreated"`
	NotificationsSent  int       `json:"notificationsSent"`
	Failures           int       `json:"failures"`
	Timestamp          time.Time `json:"timestamp"`
}
