package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationChannel identifies the delivery channel for a queued notification
type NotificationChannel string

const (
	NotificationChannelSlack NotificationChannel = "slack"
	NotificationChannelEmail NotificationChannel = "email"
)

// NotificationStatus tracks delivery state
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is one queued outbound summary message for a completed
// meeting. The payload holds the full summary content so delivery can be
// retried without re-reading the analysis tables.
type Notification struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID uuid.UUID           `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Recipient string              `gorm:"type:varchar(255);not null" json:"recipient"`
	Channel   NotificationChannel `gorm:"type:varchar(16);not null" json:"channel"`
	Subject   string              `gorm:"type:varchar(512)" json:"subject"`
	Payload   datatypes.JSON      `gorm:"type:jsonb" json:"payload,omitempty"`
	Status    NotificationStatus  `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time           `gorm:"default:now()" json:"created_at"`
	SentAt    *time.Time          `json:"sent_at,omitempty"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
