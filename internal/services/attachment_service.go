package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

// RecordAttachmentInput describes a stored file. FileSize is the stored size,
// OriginalSize the size before compression (0 when not compressed).
type RecordAttachmentInput struct {
	TicketID     string
	FilePath     string
	FileName     string
	FileSize     int64
	OriginalSize int64
	MimeType     string
	UploadedBy   string
}

// AttachmentService records ticket attachment metadata. File bytes live elsewhere.
type AttachmentService struct {
	db *gorm.DB
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(db *gorm.DB) (*AttachmentService, error) {
	if db == nil {
		return nil, errors.New("attachment service: db is required")
	}
	return &AttachmentService{db: db}, nil
}

// Record stores attachment metadata and computes its compression ratio.
func (s *AttachmentService) Record(ctx context.Context, input RecordAttachmentInput) (*models.Attachment, error) {
	ctx = ensureContext(ctx)

	ticketID := strings.TrimSpace(input.TicketID)
	path := strings.TrimSpace(input.FilePath)
	if ticketID == "" {
		return nil, apperrors.NewBadRequest("ticket id is required")
	}
	if path == "" {
		return nil, apperrors.NewBadRequest("file path is required")
	}
	if input.FileSize < 0 || input.OriginalSize < 0 {
		return nil, apperrors.NewBadRequest("file sizes cannot be negative")
	}

	name := strings.TrimSpace(input.FileName)
	if name == "" {
		name = filepath.Base(path)
	}
	original := input.OriginalSize
	if original == 0 {
		original = input.FileSize
	}

	attachment := &models.Attachment{
		TicketID:     ticketID,
		FilePath:     path,
		FileName:     name,
		FileSize:     input.FileSize,
		OriginalSize: original,
		MimeType:     strings.TrimSpace(input.MimeType),
		UploadedBy:   optionalID(&input.UploadedBy),
	}
	attachment.CompressionRatio = attachment.ComputeCompressionRatio()

	if err := s.db.WithContext(ctx).Create(attachment).Error; err != nil {
		return nil, fmt.Errorf("attachment service: record attachment: %w", err)
	}
	return attachment, nil
}

// ListForTicket returns a ticket's attachments, oldest first.
func (s *AttachmentService) ListForTicket(ctx context.Context, ticketID string) ([]models.Attachment, error) {
	ctx = ensureContext(ctx)

	var attachments []models.Attachment
	if err := s.db.WithContext(ctx).
		Where("ticket_id = ?", strings.TrimSpace(ticketID)).
		Order("created_at ASC").
		Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("attachment service: list attachments: %w", err)
	}
	return attachments, nil
}
