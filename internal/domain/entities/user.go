package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User holds the calendar credentials and vendor API key the pipeline
// needs to act on a person's behalf. Account management itself lives
// outside this service; rows here are referenced, never created, by
// pipeline stages.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email               string         `gorm:"type:varchar(255);unique;not null" json:"email"`
	CalendarEmail       *string        `gorm:"type:varchar(255)" json:"calendar_email,omitempty"`
	GoogleCalendarToken datatypes.JSON `gorm:"type:jsonb" json:"-"`
	VexaAPIKey          *string        `gorm:"type:varchar(255)" json:"-"`
	SlackUserID         *string        `gorm:"type:varchar(64)" json:"slack_user_id,omitempty"`
	MonitoringEnabled   bool           `gorm:"not null;default:false;index" json:"monitoring_enabled"`
	CreatedAt           time.Time      `gorm:"default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// CalendarAddress returns the calendar to scan, falling back to the account email
func (u *User) CalendarAddress() string {
	if u.CalendarEmail != nil && *u.CalendarEmail != "" {
		return *u.CalendarEmail
	}
	return u.Email
}

// HasVendorKey reports whether a transcription-vendor API key is on file
func (u *User) HasVendorKey() bool {
	return u.VexaAPIKey != nil && *u.VexaAPIKey != ""
}
