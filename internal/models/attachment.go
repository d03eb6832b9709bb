package models

// Attachment records a file stored for a ticket. FileSize is the stored (possibly
// compressed) size; OriginalSize the size before compression.
type Attachment struct {
	BaseModel

	TicketID         string  `gorm:"type:uuid;index;not null" json:"ticket_id"`
	FilePath         string  `gorm:"type:text;not null" json:"file_path"`
	FileName         string  `gorm:"type:varchar(255)" json:"file_name"`
	FileSize         int64   `json:"file_size"`
	OriginalSize     int64   `json:"original_size"`
	MimeType         string  `gorm:"type:varchar(128)" json:"mime_type"`
	UploadedBy       *string `gorm:"type:uuid;index" json:"uploaded_by"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// TableName keeps the historical table name.
func (Attachment) TableName() string { return "ticket_attachments" }

// ComputeCompressionRatio returns OriginalSize/FileSize, or 1 when either is unknown.
func (a Attachment) ComputeCompressionRatio() float64 {
	if a.FileSize <= 0 || a.OriginalSize <= 0 {
		return 1
	}
	return float64(a.OriginalSize) / float64(a.FileSize)
}
