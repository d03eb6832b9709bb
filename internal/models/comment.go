package models

import "gorm.io/datatypes"

// Comment is a markdown note on a ticket, optionally mentioning users.
type Comment struct {
	BaseModel

	TicketID string                      `gorm:"type:uuid;index;not null" json:"ticket_id"`
	AuthorID string                      `gorm:"type:uuid;index" json:"author_id"`
	Content  string                      `gorm:"type:text;not null" json:"content"`
	Mentions datatypes.JSONSlice[string] `json:"mentions"`
}
