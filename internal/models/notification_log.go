package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationLog is the append-only record of a delivery attempt.
type NotificationLog struct {
	ID           string                      `gorm:"primaryKey;type:uuid" json:"id"`
	Type         NotificationKind            `gorm:"type:varchar(32);not null;index" json:"type"`
	TicketID     string                      `gorm:"type:uuid;index" json:"ticket_id"`
	RecipientIDs datatypes.JSONSlice[string] `json:"recipient_ids"`
	SenderID     *string                     `gorm:"type:uuid;index" json:"sender_id"`
	Metadata     datatypes.JSONMap           `json:"metadata"`
	SentAt       time.Time                   `gorm:"index" json:"sent_at"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// TableName keeps the historical table name.
func (NotificationLog) TableName() string { return "email_notification_logs" }

func (l *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
