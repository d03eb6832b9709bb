package models

import "time"

// Release groups tickets and metadata changes shipped together.
type Release struct {
	BaseModel

	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Version    string     `gorm:"type:varchar(64);index" json:"version"`
	TargetDate *time.Time `json:"target_date"`
	Status     string     `gorm:"type:varchar(32);default:'planned'" json:"status"`
	Notes      string     `gorm:"type:text" json:"notes"`
}
