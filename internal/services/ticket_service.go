package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/internal/notifications"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
	"github.com/charlesng35/releasetrack/pkg/logger"
)

// ErrTicketNotFound indicates the requested ticket does not exist.
var ErrTicketNotFound = apperrors.New("TICKET_NOT_FOUND", "Ticket not found", http.StatusNotFound)

// TicketNotifier receives ticket mutations once they are committed.
type TicketNotifier interface {
	NotifyStatusChange(ctx context.Context, event notifications.StatusChangeEvent) notifications.Result
	NotifyAssigneeChange(ctx context.Context, event notifications.AssigneeChangeEvent) notifications.Result
	NotifyComment(ctx context.Context, event notifications.CommentEvent) notifications.Result
}

// CreateTicketInput describes a new ticket.
type CreateTicketInput struct {
	Title       string
	Description string
	Status      models.TicketStatus
	Priority    string
	Type        string
	SupportArea string
	RequesterID string
	AssigneeID  string
	ReleaseID   string
	ActorID     string
}

// UpdateTicketInput patches a ticket. Nil fields are left untouched; an empty string
// clears AssigneeID or ReleaseID.
type UpdateTicketInput struct {
	Title         *string
	Description   *string
	Status        *models.TicketStatus
	Priority      *string
	Type          *string
	SupportArea   *string
	AssigneeID    *string
	ReleaseID     *string
	SolutionNotes *string
	TestNotes     *string
	ActorID       string
}

// TicketFilters captures listing filters.
type TicketFilters struct {
	Status     models.TicketStatus
	Priority   string
	AssigneeID string
	ReleaseID  string
	Query      string
}

// ListTicketsOptions controls pagination for ticket listing.
type ListTicketsOptions struct {
	Page     int
	PageSize int
	Filters  TicketFilters
}

// TicketService manages tickets and raises notifications for status and assignee changes.
type TicketService struct {
	db       *gorm.DB
	notifier TicketNotifier
	now      func() time.Time
	log      *zap.Logger
}

// NewTicketService constructs a TicketService. notifier may be nil to disable notifications.
func NewTicketService(db *gorm.DB, notifier TicketNotifier) (*TicketService, error) {
	if db == nil {
		return nil, errors.New("ticket service: db is required")
	}
	return &TicketService{
		db:       db,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithModule("tickets"),
	}, nil
}

// Create stores a new ticket. Tickets created with an assignee notify that assignee.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	status := input.Status
	if status == "" {
		status = models.StatusOpen
	}
	if !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown status %q", status))
	}

	ticket := &models.Ticket{
		Title:       title,
		Description: input.Description,
		Priority:    strings.TrimSpace(input.Priority),
		Type:        strings.TrimSpace(input.Type),
		SupportArea: strings.TrimSpace(input.SupportArea),
		RequesterID: optionalID(&input.RequesterID),
		AssigneeID:  optionalID(&input.AssigneeID),
		ReleaseID:   optionalID(&input.ReleaseID),
	}
	ticket.ApplyStatus(status, s.now())

	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("ticket service: create ticket: %w", err)
	}

	if ticket.AssigneeID != nil && s.notifier != nil {
		s.report(ticket.ID, s.notifier.NotifyAssigneeChange(ctx, notifications.AssigneeChangeEvent{
			Ticket:  *ticket,
			ActorID: strings.TrimSpace(input.ActorID),
		}))
	}

	return ticket, nil
}

// GetByID loads a ticket by identifier.
func (s *TicketService) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	var ticket models.Ticket
	err := s.db.WithContext(ctx).First(&ticket, "id = ?", strings.TrimSpace(id)).Error
	if isMissingRecord(err) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ticket service: get ticket: %w", err)
	}
	return &ticket, nil
}

// List retrieves tickets matching the supplied filters, newest first.
func (s *TicketService) List(ctx context.Context, opts ListTicketsOptions) ([]models.Ticket, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Ticket{})
	if status := opts.Filters.Status; status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := strings.TrimSpace(opts.Filters.Priority); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignee := strings.TrimSpace(opts.Filters.AssigneeID); assignee != "" {
		query = query.Where("assignee_id = ?", assignee)
	}
	if release := strings.TrimSpace(opts.Filters.ReleaseID); release != "" {
		query = query.Where("release_id = ?", release)
	}
	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ticket service: count tickets: %w", err)
	}

	var tickets []models.Ticket
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("ticket service: list tickets: %w", err)
	}
	return tickets, total, nil
}

// Update applies input, maintains the closed date, and notifies participants of
// status and assignee changes after the write commits. Notification failures are
// logged and never fail the update.
func (s *TicketService) Update(ctx context.Context, id string, input UpdateTicketInput) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	var (
		ticket         models.Ticket
		oldStatus      models.TicketStatus
		oldAssignee    string
		statusChanged  bool
		assigneeChange bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&ticket, "id = ?", strings.TrimSpace(id)).Error
		if isMissingRecord(err) {
			return ErrTicketNotFound
		}
		if err != nil {
			return fmt.Errorf("ticket service: load ticket: %w", err)
		}

		oldStatus = ticket.Status
		oldAssignee = ticket.Assignee()

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return apperrors.NewBadRequest("title cannot be empty")
			}
			ticket.Title = title
		}
		if input.Description != nil {
			ticket.Description = *input.Description
		}
		if input.Priority != nil {
			ticket.Priority = strings.TrimSpace(*input.Priority)
		}
		if input.Type != nil {
			ticket.Type = strings.TrimSpace(*input.Type)
		}
		if input.SupportArea != nil {
			ticket.SupportArea = strings.TrimSpace(*input.SupportArea)
		}
		if input.SolutionNotes != nil {
			ticket.SolutionNotes = *input.SolutionNotes
		}
		if input.TestNotes != nil {
			ticket.TestNotes = *input.TestNotes
		}
		if input.ReleaseID != nil {
			ticket.ReleaseID = optionalID(input.ReleaseID)
		}
		if input.AssigneeID != nil {
			ticket.AssigneeID = optionalID(input.AssigneeID)
		}
		if input.Status != nil {
			next := *input.Status
			if !next.Valid() {
				return apperrors.NewBadRequest(fmt.Sprintf("unknown status %q", next))
			}
			if next != oldStatus {
				ticket.ApplyStatus(next, s.now())
			}
		}

		statusChanged = ticket.Status != oldStatus
		assigneeChange = ticket.Assignee() != oldAssignee

		if err := tx.Save(&ticket).Error; err != nil {
			return fmt.Errorf("ticket service: update ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		actor := strings.TrimSpace(input.ActorID)
		if statusChanged {
			s.report(ticket.ID, s.notifier.NotifyStatusChange(ctx, notifications.StatusChangeEvent{
				Ticket:    ticket,
				ActorID:   actor,
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			}))
		}
		if assigneeChange {
			s.report(ticket.ID, s.notifier.NotifyAssigneeChange(ctx, notifications.AssigneeChangeEvent{
				Ticket:             ticket,
				ActorID:            actor,
				PreviousAssigneeID: oldAssignee,
			}))
		}
	}

	return &ticket, nil
}

// Delete removes a ticket together with its comments, attachments and metadata rows.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Ticket{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("ticket service: delete ticket: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTicketNotFound
		}
		for _, model := range []any{&models.Comment{}, &models.Attachment{}} {
			if err := tx.Where("ticket_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("ticket service: delete ticket children: %w", err)
			}
		}
		if err := tx.Model(&models.MetadataItem{}).Where("ticket_id = ?", id).Update("ticket_id", nil).Error; err != nil {
			return fmt.Errorf("ticket service: detach metadata: %w", err)
		}
		return nil
	})
}

func (s *TicketService) report(ticketID string, result notifications.Result) {
	switch {
	case result.Success:
		s.log.Debug("ticket notification sent", zap.String("ticket_id", ticketID), zap.Int("deliveries", len(result.Data)))
	case result.Skipped():
		s.log.Debug("ticket notification skipped", zap.String("ticket_id", ticketID), zap.Error(result.Error))
	default:
		s.log.Warn("ticket notification failed", zap.String("ticket_id", ticketID), zap.Error(result.Error))
	}
}
