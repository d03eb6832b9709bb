package models

import "time"

// JumbotronMessage is a banner announcement shown across the application.
type JumbotronMessage struct {
	BaseModel

	Message   string     `gorm:"type:text;not null" json:"message"`
	Severity  string     `gorm:"type:varchar(16);default:'info'" json:"severity"`
	Active    bool       `gorm:"not null;index" json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}
