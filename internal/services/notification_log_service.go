package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
)

// ListNotificationLogsOptions filters the notification log.
type ListNotificationLogsOptions struct {
	TicketID string
	Type     models.NotificationKind
	Page     int
	PageSize int
}

// NotificationLogService reads the append-only notification log. Rows are written
// by the notification pipeline only.
type NotificationLogService struct {
	db *gorm.DB
}

// NewNotificationLogService constructs a NotificationLogService.
func NewNotificationLogService(db *gorm.DB) (*NotificationLogService, error) {
	if db == nil {
		return nil, errors.New("notification log service: db is required")
	}
	return &NotificationLogService{db: db}, nil
}

// List returns log entries newest first.
func (s *NotificationLogService) List(ctx context.Context, opts ListNotificationLogsOptions) ([]models.NotificationLog, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.NotificationLog{})
	if ticketID := strings.TrimSpace(opts.TicketID); ticketID != "" {
		query = query.Where("ticket_id = ?", ticketID)
	}
	if opts.Type != "" {
		query = query.Where("type = ?", opts.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification log service: count: %w", err)
	}

	var rows []models.NotificationLog
	if err := query.
		Order("sent_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification log service: list: %w", err)
	}
	return rows, total, nil
}
