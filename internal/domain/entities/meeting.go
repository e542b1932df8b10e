package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingPlatform identifies the video-conferencing platform a meeting runs on
type MeetingPlatform string

const (
	PlatformGoogleMeet MeetingPlatform = "google_meet"
)

// MeetingStatus represents the pipeline stage a meeting is currently in
type MeetingStatus string

const (
	MeetingStatusDetected            MeetingStatus = "detected"
	MeetingStatusBotJoined           MeetingStatus = "bot_joined"
	MeetingStatusTranscribed         MeetingStatus = "transcribed"
	MeetingStatusParticipantsMatched MeetingStatus = "participants_matched"
	MeetingStatusCompleted           MeetingStatus = "completed"
	MeetingStatusFailed              MeetingStatus = "failed"
	MeetingStatusFailedProcessing    MeetingStatus = "failed_processing"
)

// meetingTransitions is the table of legal forward transitions.
// Every stage advances a meeting exactly one step, or moves it to a
// terminal failure status. There are no backward edges; reprocessing a
// failed meeting goes through MeetingRepository.ResetForReprocess, which
// is an operator action, not a pipeline transition.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusDetected:            {MeetingStatusBotJoined, MeetingStatusFailed},
	MeetingStatusBotJoined:           {MeetingStatusTranscribed, MeetingStatusFailed},
	MeetingStatusTranscribed:         {MeetingStatusParticipantsMatched, MeetingStatusFailed},
	MeetingStatusParticipantsMatched: {MeetingStatusCompleted, MeetingStatusFailedProcessing},
}

// CanTransition reports whether moving from s to next is a legal pipeline transition
func (s MeetingStatus) CanTransition(next MeetingStatus) bool {
	for _, allowed := range meetingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no stage will ever act on this status again
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed || s == MeetingStatusFailedProcessing
}

// Meeting represents one tracked video meeting instance
type Meeting struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UserEmail       string          `gorm:"type:varchar(255);not null" json:"user_email"`
	Platform        MeetingPlatform `gorm:"type:varchar(32);not null;default:'google_meet';uniqueIndex:idx_meetings_platform_native" json:"platform"`
	NativeMeetingID string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_meetings_platform_native" json:"native_meeting_id"`
	MeetingURL      string          `gorm:"type:text;not null" json:"meeting_url"`
	Title           string          `gorm:"type:varchar(512);not null" json:"title"`
	Status          MeetingStatus   `gorm:"type:varchar(32);not null;default:'detected';index" json:"status"`
	IsInstant       bool            `gorm:"not null;default:false;index" json:"is_instant"`
	ScheduledAt     time.Time       `gorm:"not null;index" json:"scheduled_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	BotJoinedAt     *time.Time      `json:"bot_joined_at,omitempty"`
	CreatedAt       time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a detected meeting for the given owner
func NewMeeting(owner *User, nativeID, url, title string, scheduledAt time.Time, isInstant bool) *Meeting {
	return &Meeting{
		ID:              uuid.New(),
		UserID:          owner.ID,
		UserEmail:       owner.Email,
		Platform:        PlatformGoogleMeet,
		NativeMeetingID: nativeID,
		MeetingURL:      url,
		Title:           title,
		Status:          MeetingStatusDetected,
		IsInstant:       isInstant,
		ScheduledAt:     scheduledAt.UTC(),
	}
}

// HasEnded reports whether the meeting's end time has been recorded
func (m *Meeting) HasEnded() bool {
	return m.EndedAt != nil
}
