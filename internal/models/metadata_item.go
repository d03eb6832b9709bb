package models

// MetadataItem tracks a Salesforce metadata component changed by a ticket.
type MetadataItem struct {
	BaseModel

	TicketID     *string `gorm:"type:uuid;index" json:"ticket_id"`
	ReleaseID    *string `gorm:"type:uuid;index" json:"release_id"`
	MetadataType string  `gorm:"type:varchar(128);not null" json:"metadata_type"`
	APIName      string  `gorm:"type:varchar(255);not null" json:"api_name"`
	Action       string  `gorm:"type:varchar(16);not null" json:"action"`
	Notes        string  `gorm:"type:text" json:"notes"`
}

// TableName keeps the historical table name.
func (MetadataItem) TableName() string { return "metadata" }
