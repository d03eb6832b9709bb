package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the identity and timestamps shared by tickets, users,
// releases and the notification audit rows. Records are hard-deleted.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random (version 4) id unless the caller chose one.
// Request handlers only accept version 4 references.
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsValidID reports whether id could reference a record.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
